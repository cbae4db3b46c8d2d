package repository

import (
	"context"
	"time"

	"realty-payments/internal/domain/model"
)

type SubscriptionRepository interface {
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// Upsert atomically writes the subscription row for a user. Only the
	// entitlement fields are touched so it cannot clobber unrelated concurrent
	// profile updates.
	Upsert(ctx context.Context, tx Tx, userID, plan string, expiresAt time.Time) error

	// AppendHistory inserts one audit entry. The payment_id unique constraint
	// makes a repeat append for the same payment a no-op; inserted=false
	// signals the activation already happened.
	AppendHistory(ctx context.Context, tx Tx, e *model.HistoryEntry) (bool, error)

	ListHistoryByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.HistoryEntry, error)
}
