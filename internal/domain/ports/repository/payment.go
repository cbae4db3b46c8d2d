package repository

import (
	"context"
	"time"

	"realty-payments/internal/domain/model"
)

// TransitionMarks carries the optional fields a transition sets atomically with
// the status change.
type TransitionMarks struct {
	TxnID       string
	PayerPhone  string
	RawEvent    map[string]interface{}
	ConfirmedBy *string
}

// ListFilter narrows admin payment listings.
type ListFilter struct {
	Status  *model.PaymentStatus
	Channel *model.PaymentChannel
}

type PaymentRepository interface {
	// FindOrCreate atomically looks up or inserts the payment keyed by
	// (channel, external_ref). Returns the authoritative row and whether this
	// call inserted it. Concurrent calls for the same key yield one row.
	FindOrCreate(ctx context.Context, tx Tx, seed *model.Payment) (*model.Payment, bool, error)

	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByRef(ctx context.Context, tx Tx, channel model.PaymentChannel, externalRef string) (*model.Payment, error)

	// Transition applies a guarded compare-and-update: status moves to `to`
	// only if the current status is one of `from`. When the guard fails the
	// call is a no-op and returns the current row with moved=false.
	Transition(ctx context.Context, tx Tx, id string, to model.PaymentStatus, from []model.PaymentStatus, marks *TransitionMarks) (*model.Payment, bool, error)

	// MarkActivation records the entitlement-granting fact independently of
	// the payment status.
	MarkActivation(ctx context.Context, tx Tx, id string, state model.ActivationState) error

	ListPendingOlderThan(ctx context.Context, tx Tx, channel model.PaymentChannel, olderThan time.Time, limit int) ([]*model.Payment, error)
	ListUnactivated(ctx context.Context, tx Tx, limit int) ([]*model.Payment, error)
	List(ctx context.Context, tx Tx, filter ListFilter, offset, limit int) ([]*model.Payment, int, error)
}
