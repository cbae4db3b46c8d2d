package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/metrics"
	"realty-payments/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending mobile-money payments
// and finalizes them through the status-poll path. This covers the cases where
// the provider callback was lost or the process crashed mid-confirm.
type PaymentReconciler struct {
	uc         usecase.MobileMoneyUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.MobileMoneyUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
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

func (w *PaymentReconciler) tick(ctx context.Context) {
	metrics.IncReconcilerTick("payment_reconciler")
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, model.ChannelMobileMoney, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list pending")
		return
	}
	for _, p := range pending {
		if _, err := w.uc.CheckStatus(ctx, p.ExternalRef); err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Str("reference", p.ExternalRef).Msg("payment-reconciler: status poll failed")
			continue
		}
		w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: reconciled")
	}
}
