package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/adapter"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/metrics"
)

// Compile-time check
var _ CardWebhookUseCase = (*cardWebhookUC)(nil)

// CardWebhookUseCase applies signed card-network events to the ledger. The
// channel is push-only: duplicate redelivery is absorbed by the transition
// guard, so no reconciliation poll exists for it.
type CardWebhookUseCase interface {
	// HandleEvent verifies the signature and applies the event. Returns
	// ErrInvalidSignature without touching the ledger when verification fails.
	HandleEvent(ctx context.Context, body []byte, signature string) error
}

// cardEvent is the provider's envelope: {type, data.object}.
type cardEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Metadata struct {
				ListingID string `json:"listing_id"`
				PayerID   string `json:"payer_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type cardWebhookUC struct {
	payments   repository.PaymentRepository
	verifier   adapter.WebhookVerifier
	activation ActivationUseCase
	log        *zerolog.Logger
}

func NewCardWebhookUseCase(
	payments repository.PaymentRepository,
	verifier adapter.WebhookVerifier,
	activation ActivationUseCase,
	logger *zerolog.Logger,
) *cardWebhookUC {
	return &cardWebhookUC{payments: payments, verifier: verifier, activation: activation, log: logger}
}

func (uc *cardWebhookUC) HandleEvent(ctx context.Context, body []byte, signature string) error {
	if !uc.verifier.Verify(body, signature) {
		uc.log.Warn().Msg("card webhook signature rejected")
		return domain.ErrInvalidSignature
	}

	var ev cardEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return domain.ErrInvalidArgument
	}

	switch ev.Type {
	case "payment_intent.succeeded":
		var subject *string
		if ev.Data.Object.Metadata.ListingID != "" {
			subject = &ev.Data.Object.Metadata.ListingID
		}
		return uc.confirm(ctx, body, ev, subject)
	case "invoice.payment_succeeded":
		// Subscription-style charge: keyed by invoice id, no subject.
		return uc.confirm(ctx, body, ev, nil)
	default:
		// Acknowledged but outside the confirmed/failed transition set.
		uc.log.Debug().Str("type", ev.Type).Msg("card event ignored")
		return nil
	}
}

func (uc *cardWebhookUC) confirm(ctx context.Context, body []byte, ev cardEvent, subject *string) error {
	if ev.Data.Object.ID == "" {
		return domain.ErrInvalidArgument
	}
	var payer *string
	if ev.Data.Object.Metadata.PayerID != "" {
		payer = &ev.Data.Object.Metadata.PayerID
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	p, _, err := uc.payments.FindOrCreate(ctx, nil, &model.Payment{
		ID:          uuid.NewString(),
		Channel:     model.ChannelCard,
		ExternalRef: ev.Data.Object.ID,
		Amount:      ev.Data.Object.Amount,
		Currency:    ev.Data.Object.Currency,
		SubjectID:   subject,
		PayerID:     payer,
		RawEvent:    raw,
	})
	if err != nil {
		return err
	}

	// Cryptographically verified channel: confirm directly from pending.
	updated, moved, err := uc.payments.Transition(ctx, nil, p.ID, model.PaymentStatusConfirmed,
		[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusSubmitted},
		&repository.TransitionMarks{RawEvent: raw})
	if err != nil {
		return err
	}
	if !moved {
		uc.log.Debug().Str("payment_id", updated.ID).Msg("duplicate webhook delivery absorbed")
		return nil
	}

	metrics.IncPayment(string(model.ChannelCard), string(model.PaymentStatusConfirmed))
	uc.log.Info().Str("payment_id", updated.ID).Str("event", ev.Type).Msg("card payment confirmed")

	if err := uc.activation.Activate(ctx, updated); err != nil {
		// The event is durably recorded; surface for operators but still ACK
		// so the provider does not retry-storm us.
		uc.log.Error().Err(err).Str("payment_id", updated.ID).Msg("activation deferred to retrier")
	}
	return nil
}
