package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `SELECT user_id, active, plan, expires_at, updated_at FROM subscriptions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	s := &model.Subscription{}
	if err := row.Scan(&s.UserID, &s.Active, &s.Plan, &s.ExpiresAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// Upsert writes only the entitlement columns, so a concurrent profile edit on
// the same user cannot be clobbered.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, userID, plan string, expiresAt time.Time) error {
	const q = `
INSERT INTO subscriptions (user_id, active, plan, expires_at, updated_at)
VALUES ($1, TRUE, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  active = TRUE, plan = $2, expires_at = $3, updated_at = NOW();`
	if _, err := execSQL(ctx, r.pool, tx, q, userID, plan, expiresAt); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// AppendHistory is the exactly-once anchor: payment_id is unique, so a second
// activation attempt for the same payment inserts nothing and reports false.
func (r *subscriptionRepo) AppendHistory(ctx context.Context, tx repository.Tx, e *model.HistoryEntry) (bool, error) {
	const q = `
INSERT INTO subscription_history (id, payment_id, user_id, amount, currency, channel, outcome, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (payment_id) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.ID, e.PaymentID, e.UserID, e.Amount, e.Currency, e.Channel, e.Outcome)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) ListHistoryByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, payment_id, user_id, amount, currency, channel, outcome, created_at FROM subscription_history WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HistoryEntry
	for rows.Next() {
		e := &model.HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.UserID, &e.Amount, &e.Currency, &e.Channel, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}
