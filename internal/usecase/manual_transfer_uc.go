package usecase

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/metrics"
)

// Compile-time check
var _ ManualTransferUseCase = (*manualTransferUC)(nil)

// ManualTransferUseCase models the human-attested channel: the payer transfers
// out-of-band, self-reports, and an administrator settles the record.
type ManualTransferUseCase interface {
	// Initiate records intent and returns the payment plus the platform
	// account the payer should transfer to.
	Initiate(ctx context.Context, payerID string, subjectID *string, amount int64, currency string) (*model.Payment, string, error)
	// Submit records the payer's attestation; it signals "awaiting
	// verification", never proof of payment.
	Submit(ctx context.Context, paymentID, senderPhone, transactionRef string) (*model.Payment, error)
	// Confirm is the admin decision: true settles and activates, false fails.
	Confirm(ctx context.Context, paymentID, adminID string, approve bool) (*model.Payment, error)
	// List is the admin review query.
	List(ctx context.Context, filter repository.ListFilter, offset, limit int) ([]*model.Payment, int, error)
}

type manualTransferUC struct {
	payments         repository.PaymentRepository
	activation       ActivationUseCase
	recipientAccount string
	log              *zerolog.Logger
}

func NewManualTransferUseCase(
	payments repository.PaymentRepository,
	activation ActivationUseCase,
	recipientAccount string,
	logger *zerolog.Logger,
) *manualTransferUC {
	return &manualTransferUC{payments: payments, activation: activation, recipientAccount: recipientAccount, log: logger}
}

// generateTransferCode creates a short human-readable reference the payer can
// quote in their transfer. Ambiguous characters (O/0, I/1) are excluded.
func generateTransferCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 8

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return "MT-" + string(buffer), nil
}

func (uc *manualTransferUC) Initiate(ctx context.Context, payerID string, subjectID *string, amount int64, currency string) (*model.Payment, string, error) {
	if payerID == "" || amount <= 0 || currency == "" {
		return nil, "", domain.ErrInvalidArgument
	}
	ref, err := generateTransferCode()
	if err != nil {
		return nil, "", err
	}

	p, _, err := uc.payments.FindOrCreate(ctx, nil, &model.Payment{
		ID:          uuid.NewString(),
		Channel:     model.ChannelManual,
		ExternalRef: ref,
		Amount:      amount,
		Currency:    currency,
		SubjectID:   subjectID,
		PayerID:     &payerID,
	})
	if err != nil {
		return nil, "", err
	}
	metrics.IncPayment(string(model.ChannelManual), string(p.Status))
	uc.log.Info().Str("payment_id", p.ID).Str("reference", ref).Msg("manual transfer initiated")
	return p, uc.recipientAccount, nil
}

func (uc *manualTransferUC) Submit(ctx context.Context, paymentID, senderPhone, transactionRef string) (*model.Payment, error) {
	if paymentID == "" || transactionRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, moved, err := uc.payments.Transition(ctx, nil, paymentID, model.PaymentStatusSubmitted,
		[]model.PaymentStatus{model.PaymentStatusPending},
		&repository.TransitionMarks{PayerPhone: senderPhone, TxnID: transactionRef})
	if err != nil {
		return nil, err
	}
	if moved {
		metrics.IncPayment(string(model.ChannelManual), string(model.PaymentStatusSubmitted))
		uc.log.Info().Str("payment_id", p.ID).Msg("manual transfer attestation recorded")
	}
	return p, nil
}

func (uc *manualTransferUC) Confirm(ctx context.Context, paymentID, adminID string, approve bool) (*model.Payment, error) {
	if paymentID == "" || adminID == "" {
		return nil, domain.ErrInvalidArgument
	}

	to := model.PaymentStatusConfirmed
	if !approve {
		to = model.PaymentStatusFailed
	}
	p, moved, err := uc.payments.Transition(ctx, nil, paymentID, to,
		[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusSubmitted},
		&repository.TransitionMarks{ConfirmedBy: &adminID})
	if err != nil {
		return nil, err
	}
	if !moved {
		uc.log.Debug().Str("payment_id", p.ID).Str("status", string(p.Status)).Msg("confirm on settled payment is a no-op")
		return p, nil
	}

	metrics.IncPayment(string(model.ChannelManual), string(to))
	uc.log.Info().Str("payment_id", p.ID).Str("admin", adminID).Bool("approved", approve).Msg("manual transfer reviewed")

	if to == model.PaymentStatusConfirmed {
		if err := uc.activation.Activate(ctx, p); err != nil {
			uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("activation deferred to retrier")
		}
	}
	return p, nil
}

func (uc *manualTransferUC) List(ctx context.Context, filter repository.ListFilter, offset, limit int) ([]*model.Payment, int, error) {
	return uc.payments.List(ctx, nil, filter, offset, limit)
}
