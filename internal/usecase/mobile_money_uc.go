package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/adapter"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/logging"
	"realty-payments/internal/infra/metrics"
)

// Compile-time check
var _ MobileMoneyUseCase = (*mobileMoneyUC)(nil)

// MobileMoneyUseCase drives the push-payment channel: charge initiation plus
// two reconciliation paths (provider callback and status poll) that funnel
// through the same guarded transition.
type MobileMoneyUseCase interface {
	// Initiate normalizes the phone, asks the provider to charge it, and only
	// then records a pending payment. Returns the payment and its reference.
	Initiate(ctx context.Context, payerPhone string, amount int64, payerID string, subjectID *string, description string) (*model.Payment, error)
	// HandleCallback applies a provider-pushed status notification.
	HandleCallback(ctx context.Context, reference, status, txnID string, raw map[string]interface{}) (*model.Payment, error)
	// CheckStatus polls the provider for a reference and applies the result.
	CheckStatus(ctx context.Context, reference string) (*model.Payment, error)
}

// Provider transaction status codes.
const (
	momoStatusSettled    = "TS"
	momoStatusFailed     = "TF"
	momoStatusInProgress = "TIP"
)

type mobileMoneyUC struct {
	payments   repository.PaymentRepository
	gateway    adapter.MobileMoneyGateway
	activation ActivationUseCase
	currency   string
	log        *zerolog.Logger
}

func NewMobileMoneyUseCase(
	payments repository.PaymentRepository,
	gateway adapter.MobileMoneyGateway,
	activation ActivationUseCase,
	currency string,
	logger *zerolog.Logger,
) *mobileMoneyUC {
	return &mobileMoneyUC{payments: payments, gateway: gateway, activation: activation, currency: currency, log: logger}
}

// newReference builds an unpredictable, time-sortable charge reference.
func newReference() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (uc *mobileMoneyUC) Initiate(ctx context.Context, payerPhone string, amount int64, payerID string, subjectID *string, description string) (*model.Payment, error) {
	if amount <= 0 || payerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	msisdn, err := NormalizeMSISDN(payerPhone)
	if err != nil {
		return nil, err
	}

	ref := newReference()
	res, err := uc.gateway.RequestCharge(ctx, adapter.ChargeRequest{
		MSISDN:      msisdn,
		Amount:      amount,
		Currency:    uc.currency,
		Reference:   ref,
		Description: description,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return nil, err
		}
		uc.log.Warn().Err(err).Str("reference", ref).Msg("charge initiation failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInitiationFailed, err)
	}

	// Only record the payment once the provider accepted the charge, so a
	// network failure leaves no half-created row behind.
	p, _, err := uc.payments.FindOrCreate(ctx, nil, &model.Payment{
		ID:          uuid.NewString(),
		Channel:     model.ChannelMobileMoney,
		ExternalRef: ref,
		Amount:      amount,
		Currency:    uc.currency,
		SubjectID:   subjectID,
		PayerID:     &payerID,
		PayerPhone:  msisdn,
		TxnID:       res.TxnID,
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.ChannelMobileMoney), string(p.Status))
	uc.log.Info().Str("payment_id", p.ID).Str("reference", ref).Msg("mobile money charge initiated")
	return p, nil
}

func (uc *mobileMoneyUC) HandleCallback(ctx context.Context, reference, status, txnID string, raw map[string]interface{}) (*model.Payment, error) {
	p, err := uc.payments.FindByRef(ctx, nil, model.ChannelMobileMoney, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// An unauthenticated callback with no matching initiation never
			// creates a record.
			return nil, domain.ErrUnknownReference
		}
		return nil, err
	}
	return uc.applyProviderStatus(ctx, p, status, &repository.TransitionMarks{TxnID: txnID, RawEvent: raw})
}

func (uc *mobileMoneyUC) CheckStatus(ctx context.Context, reference string) (*model.Payment, error) {
	p, err := uc.payments.FindByRef(ctx, nil, model.ChannelMobileMoney, reference)
	if err != nil {
		return nil, err
	}
	if model.Terminal(p.Status) {
		return p, nil
	}

	st, err := uc.gateway.QueryStatus(ctx, reference)
	if err != nil {
		// Transient provider failure: the caller re-polls; ledger untouched.
		return nil, err
	}
	return uc.applyProviderStatus(ctx, p, st.Status, &repository.TransitionMarks{TxnID: st.TxnID})
}

// applyProviderStatus is the single funnel for both reconciliation paths.
// Whichever arrives first wins; the second finds the guard already closed.
func (uc *mobileMoneyUC) applyProviderStatus(ctx context.Context, p *model.Payment, providerStatus string, marks *repository.TransitionMarks) (*model.Payment, error) {
	log := logging.With(logging.WithPaymentID(logging.WithReference(ctx, p.ExternalRef), p.ID), uc.log)

	var to model.PaymentStatus
	switch providerStatus {
	case momoStatusSettled:
		to = model.PaymentStatusConfirmed
	case momoStatusFailed:
		to = model.PaymentStatusFailed
	default:
		// In-progress or unknown code: leave the record as it is.
		log.Debug().Str("provider_status", providerStatus).Msg("no transition for provider status")
		return p, nil
	}

	updated, moved, err := uc.payments.Transition(ctx, nil, p.ID, to,
		[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusSubmitted}, marks)
	if err != nil {
		return nil, err
	}
	if !moved {
		log.Debug().Str("status", string(updated.Status)).Msg("duplicate notification absorbed")
		return updated, nil
	}

	metrics.IncPayment(string(model.ChannelMobileMoney), string(to))
	log.Info().Str("status", string(to)).Msg("mobile money payment transitioned")

	if to == model.PaymentStatusConfirmed {
		if err := uc.activation.Activate(ctx, updated); err != nil {
			// Payment stays confirmed with activation pending; the retrier
			// picks it up. Never fail the notification for this.
			log.Error().Err(err).Msg("activation deferred to retrier")
		}
	}
	return updated, nil
}
