package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/metrics"
	"realty-payments/internal/usecase"
)

// ActivationRetrier sweeps confirmed payments whose entitlement write has not
// landed yet. "Payment confirmed" and "entitlement granted" are two distinct
// facts; this worker closes the gap when the second write failed.
type ActivationRetrier struct {
	activation usecase.ActivationUseCase
	payments   repository.PaymentRepository
	interval   time.Duration
	log        *zerolog.Logger
}

func NewActivationRetrier(activation usecase.ActivationUseCase, payments repository.PaymentRepository, interval time.Duration, logger *zerolog.Logger) *ActivationRetrier {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ActivationRetrier{activation: activation, payments: payments, interval: interval, log: logger}
}

func (w *ActivationRetrier) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *ActivationRetrier) tick(ctx context.Context) {
	metrics.IncReconcilerTick("activation_retrier")
	stuck, err := w.payments.ListUnactivated(ctx, nil, 100)
	if err != nil {
		w.log.Error().Err(err).Msg("activation-retrier: list unactivated")
		return
	}
	for _, p := range stuck {
		if err := w.activation.Activate(ctx, p); err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("activation-retrier: retry failed")
		}
	}
}
