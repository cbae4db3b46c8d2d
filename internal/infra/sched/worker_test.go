//go:build !integration

package sched

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
)

type stubPaymentRepo struct {
	pending     []*model.Payment
	unactivated []*model.Payment
	listErr     error
}

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

func (s *stubPaymentRepo) FindOrCreate(ctx context.Context, tx repository.Tx, seed *model.Payment) (*model.Payment, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPaymentRepo) FindByRef(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, externalRef string) (*model.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPaymentRepo) Transition(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, from []model.PaymentStatus, marks *repository.TransitionMarks) (*model.Payment, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (s *stubPaymentRepo) MarkActivation(ctx context.Context, tx repository.Tx, id string, state model.ActivationState) error {
	return nil
}

func (s *stubPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.pending, nil
}

func (s *stubPaymentRepo) ListUnactivated(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.unactivated, nil
}

func (s *stubPaymentRepo) List(ctx context.Context, tx repository.Tx, filter repository.ListFilter, offset, limit int) ([]*model.Payment, int, error) {
	return nil, 0, errors.New("not implemented")
}

type stubMomoUC struct {
	mu      sync.Mutex
	checked []string
	err     error
}

func (s *stubMomoUC) Initiate(ctx context.Context, payerPhone string, amount int64, payerID string, subjectID *string, description string) (*model.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMomoUC) HandleCallback(ctx context.Context, reference, status, txnID string, raw map[string]interface{}) (*model.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMomoUC) CheckStatus(ctx context.Context, reference string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, reference)
	if s.err != nil {
		return nil, s.err
	}
	return &model.Payment{ExternalRef: reference}, nil
}

type stubActivation struct {
	mu        sync.Mutex
	activated []string
	err       error
}

func (s *stubActivation) Activate(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated = append(s.activated, p.ID)
	return s.err
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPaymentReconciler_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("polls every stale pending payment", func(t *testing.T) {
		repo := &stubPaymentRepo{pending: []*model.Payment{
			{ID: "pay-1", ExternalRef: "ref-1", Status: model.PaymentStatusPending},
			{ID: "pay-2", ExternalRef: "ref-2", Status: model.PaymentStatusPending},
		}}
		uc := &stubMomoUC{}
		w := NewPaymentReconciler(uc, repo, time.Minute, 10*time.Minute, testLogger())

		w.tick(ctx)

		if len(uc.checked) != 2 || uc.checked[0] != "ref-1" || uc.checked[1] != "ref-2" {
			t.Errorf("unexpected polls: %v", uc.checked)
		}
	})

	t.Run("one failing poll does not stop the sweep", func(t *testing.T) {
		repo := &stubPaymentRepo{pending: []*model.Payment{
			{ID: "pay-1", ExternalRef: "ref-1"},
			{ID: "pay-2", ExternalRef: "ref-2"},
		}}
		uc := &stubMomoUC{err: errors.New("provider down")}
		w := NewPaymentReconciler(uc, repo, time.Minute, 10*time.Minute, testLogger())

		w.tick(ctx)

		if len(uc.checked) != 2 {
			t.Errorf("sweep stopped early: %v", uc.checked)
		}
	})

	t.Run("list failure skips the tick", func(t *testing.T) {
		repo := &stubPaymentRepo{listErr: errors.New("db down")}
		uc := &stubMomoUC{}
		w := NewPaymentReconciler(uc, repo, time.Minute, 10*time.Minute, testLogger())

		w.tick(ctx)

		if len(uc.checked) != 0 {
			t.Errorf("tick proceeded after a list failure: %v", uc.checked)
		}
	})
}

func TestActivationRetrier_Tick(t *testing.T) {
	ctx := context.Background()

	repo := &stubPaymentRepo{unactivated: []*model.Payment{
		{ID: "pay-1", Status: model.PaymentStatusConfirmed, Activation: model.ActivationPending},
		{ID: "pay-2", Status: model.PaymentStatusConfirmed, Activation: model.ActivationFailed},
	}}
	act := &stubActivation{}
	w := NewActivationRetrier(act, repo, time.Minute, testLogger())

	w.tick(ctx)

	if len(act.activated) != 2 {
		t.Errorf("expected both stuck payments retried, got %v", act.activated)
	}
}

func TestWorkers_StopOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &stubPaymentRepo{}
	w := NewPaymentReconciler(&stubMomoUC{}, repo, time.Millisecond, 10*time.Minute, testLogger())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on context cancellation")
	}
}
