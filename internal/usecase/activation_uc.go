package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/metrics"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

// ActivationUseCase converts a confirmed payment into a granted entitlement
// exactly once. Callers invoke it only on the first transition into confirmed;
// the engine is additionally idempotent on its own (history unique key), so a
// retry for an already-activated payment is a no-op.
type ActivationUseCase interface {
	Activate(ctx context.Context, p *model.Payment) error
}

type activationUC struct {
	subs      repository.SubscriptionRepository
	listings  repository.ListingRepository
	payments  repository.PaymentRepository
	tm        repository.TransactionManager
	plan      string
	subPeriod time.Duration
	boost     time.Duration
	log       *zerolog.Logger
}

func NewActivationUseCase(
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	payments repository.PaymentRepository,
	tm repository.TransactionManager,
	plan string,
	subPeriod, boostPeriod time.Duration,
	logger *zerolog.Logger,
) *activationUC {
	return &activationUC{
		subs:      subs,
		listings:  listings,
		payments:  payments,
		tm:        tm,
		plan:      plan,
		subPeriod: subPeriod,
		boost:     boostPeriod,
		log:       logger,
	}
}

// Activate grants the entitlement the payment paid for: a listing boost when a
// subject is attached, otherwise a premium subscription for the payer.
// The history append and the entitlement write share one transaction, and the
// unique payment_id on history makes a second call for the same payment exit
// before touching anything.
func (uc *activationUC) Activate(ctx context.Context, p *model.Payment) error {
	if p == nil || p.Status != model.PaymentStatusConfirmed {
		return domain.ErrInvalidArgument
	}
	if p.SubjectID == nil && p.PayerID == nil {
		return domain.ErrInvalidArgument
	}

	now := time.Now()
	outcome := "activated"
	if p.SubjectID != nil {
		outcome = "boosted"
	}

	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		userID := ""
		if p.PayerID != nil {
			userID = *p.PayerID
		}
		inserted, err := uc.subs.AppendHistory(ctx, tx, &model.HistoryEntry{
			ID:        uuid.NewString(),
			PaymentID: p.ID,
			UserID:    userID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Channel:   p.Channel,
			Outcome:   outcome,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Already activated by a concurrent or earlier call.
			return nil
		}

		if p.SubjectID != nil {
			if err := uc.listings.ExtendBoost(ctx, tx, *p.SubjectID, now.Add(uc.boost)); err != nil {
				return err
			}
			// Manual confirmations also publish the listing.
			if p.Channel == model.ChannelManual {
				if err := uc.listings.SetStatus(ctx, tx, *p.SubjectID, model.ListingStatusOnline); err != nil {
					return err
				}
			}
			return nil
		}

		// Re-activation resets the window from now rather than stacking on any
		// remaining time.
		return uc.subs.Upsert(ctx, tx, userID, uc.plan, now.Add(uc.subPeriod))
	})
	if err != nil {
		uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("activation failed; payment stays confirmed and unactivated")
		metrics.IncActivation("failed")
		if markErr := uc.payments.MarkActivation(ctx, nil, p.ID, model.ActivationFailed); markErr != nil {
			uc.log.Error().Err(markErr).Str("payment_id", p.ID).Msg("mark activation failed")
		}
		return err
	}

	if err := uc.payments.MarkActivation(ctx, nil, p.ID, model.ActivationDone); err != nil {
		// The entitlement is granted; the retrier will re-run and no-op on the
		// history key, then mark done.
		uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("mark activation done")
		return err
	}
	metrics.IncActivation(outcome)
	uc.log.Info().Str("payment_id", p.ID).Str("outcome", outcome).Msg("entitlement activated")
	return nil
}
