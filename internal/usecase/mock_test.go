//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/adapter"
	"realty-payments/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// MockPaymentRepo is a stateful in-memory PaymentRepository. It reproduces the
// two database behaviors the use cases lean on: the (channel, external_ref)
// unique key in FindOrCreate and the status guard in Transition.
type MockPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Payment // by ID

	FindOrCreateFunc func(ctx context.Context, tx repository.Tx, seed *model.Payment) (*model.Payment, bool, error)
	TransitionFunc   func(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, from []model.PaymentStatus, marks *repository.TransitionMarks) (*model.Payment, bool, error)
	MarkErr          error // simulate MarkActivation failures
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) FindOrCreate(ctx context.Context, tx repository.Tx, seed *model.Payment) (*model.Payment, bool, error) {
	if m.FindOrCreateFunc != nil {
		return m.FindOrCreateFunc(ctx, tx, seed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.Channel == seed.Channel && p.ExternalRef == seed.ExternalRef {
			cp := *p
			return &cp, false, nil
		}
	}
	cp := *seed
	if cp.Status == "" {
		cp.Status = model.PaymentStatusPending
	}
	if cp.Activation == "" {
		cp.Activation = model.ActivationNone
	}
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.store[cp.ID] = &cp
	out := cp
	return &out, true, nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByRef(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, externalRef string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.Channel == channel && p.ExternalRef == externalRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) Transition(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, from []model.PaymentStatus, marks *repository.TransitionMarks) (*model.Payment, bool, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, tx, id, to, from, marks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	guarded := false
	for _, f := range from {
		if p.Status == f {
			guarded = true
			break
		}
	}
	if !guarded {
		cp := *p
		return &cp, false, nil
	}

	now := time.Now()
	p.Status = to
	p.UpdatedAt = now
	if marks != nil {
		if marks.TxnID != "" {
			p.TxnID = marks.TxnID
		}
		if marks.PayerPhone != "" {
			p.PayerPhone = marks.PayerPhone
		}
		if marks.RawEvent != nil {
			p.RawEvent = marks.RawEvent
		}
		if marks.ConfirmedBy != nil {
			p.ConfirmedBy = marks.ConfirmedBy
		}
	}
	switch to {
	case model.PaymentStatusSubmitted:
		p.SubmittedAt = &now
	case model.PaymentStatusConfirmed:
		p.ConfirmedAt = &now
		p.Activation = model.ActivationPending
	}
	cp := *p
	return &cp, true, nil
}

func (m *MockPaymentRepo) MarkActivation(ctx context.Context, tx repository.Tx, id string, state model.ActivationState) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Activation = state
	return nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Channel == channel && p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) ListUnactivated(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusConfirmed &&
			(p.Activation == model.ActivationPending || p.Activation == model.ActivationFailed) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, filter repository.ListFilter, offset, limit int) ([]*model.Payment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Payment
	for _, p := range m.store {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Channel != nil && p.Channel != *filter.Channel {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

// ---- Subscription repo ----

// MockSubscriptionRepo keeps subscriptions keyed by user and enforces the
// history table's unique payment_id, which is what the activation engine's
// exactly-once guarantee hangs on.
type MockSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[string]*model.Subscription
	history map[string]*model.HistoryEntry // by PaymentID

	UpsertErr        error
	AppendHistoryErr error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{
		subs:    make(map[string]*model.Subscription),
		history: make(map[string]*model.HistoryEntry),
	}
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, userID, plan string, expiresAt time.Time) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[userID] = &model.Subscription{
		UserID:    userID,
		Active:    true,
		Plan:      plan,
		ExpiresAt: expiresAt,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (m *MockSubscriptionRepo) AppendHistory(ctx context.Context, tx repository.Tx, e *model.HistoryEntry) (bool, error) {
	if m.AppendHistoryErr != nil {
		return false, m.AppendHistoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.history[e.PaymentID]; exists {
		return false, nil
	}
	cp := *e
	cp.CreatedAt = time.Now()
	m.history[e.PaymentID] = &cp
	return true, nil
}

func (m *MockSubscriptionRepo) ListHistoryByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.HistoryEntry
	for _, e := range m.history {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) historyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// ---- Listing repo ----

type MockListingRepo struct {
	mu       sync.Mutex
	listings map[string]*model.Listing
}

var _ repository.ListingRepository = (*MockListingRepo)(nil)

func NewMockListingRepo() *MockListingRepo {
	return &MockListingRepo{listings: make(map[string]*model.Listing)}
}

func (m *MockListingRepo) put(l *model.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.listings[l.ID] = &cp
}

func (m *MockListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockListingRepo) ExtendBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if l.BoostedUntil == nil || l.BoostedUntil.Before(until) {
		u := until
		l.BoostedUntil = &u
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (m *MockListingRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	return nil
}

// =============================
// Adapters
// =============================

// MockMomoGateway captures charge requests and lets tests script provider
// responses for both the push and the poll path.
type MockMomoGateway struct {
	mu      sync.Mutex
	Charges []adapter.ChargeRequest

	RequestChargeFunc func(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error)
	QueryStatusFunc   func(ctx context.Context, reference string) (*adapter.TxnStatus, error)
}

var _ adapter.MobileMoneyGateway = (*MockMomoGateway)(nil)

func (m *MockMomoGateway) Name() string { return "mock-momo" }

func (m *MockMomoGateway) RequestCharge(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	m.mu.Lock()
	m.Charges = append(m.Charges, req)
	m.mu.Unlock()
	if m.RequestChargeFunc != nil {
		return m.RequestChargeFunc(ctx, req)
	}
	return &adapter.ChargeResult{TxnID: "txn-" + req.Reference, Status: "TIP"}, nil
}

func (m *MockMomoGateway) QueryStatus(ctx context.Context, reference string) (*adapter.TxnStatus, error) {
	if m.QueryStatusFunc != nil {
		return m.QueryStatusFunc(ctx, reference)
	}
	return &adapter.TxnStatus{Reference: reference, Status: "TIP"}, nil
}

// MockVerifier accepts exactly one signature string.
type MockVerifier struct {
	Expected string
}

var _ adapter.WebhookVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(body []byte, signature string) bool {
	return signature == m.Expected
}

// =============================
// Infrastructure
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs the function immediately without a real transaction unless a
// test overrides WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
