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

var _ repository.ListingRepository = (*listingRepo)(nil)

type listingRepo struct{ pool *pgxpool.Pool }

func NewListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

func (r *listingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	const q = `SELECT id, owner_id, status, boosted_until, updated_at FROM listings WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	l := &model.Listing{}
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Status, &l.BoostedUntil, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}

// ExtendBoost never shortens an existing window: GREATEST keeps whichever
// expiry is later.
func (r *listingRepo) ExtendBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	const q = `UPDATE listings SET boosted_until = GREATEST(COALESCE(boosted_until, 'epoch'::timestamptz), $2), updated_at = NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, until)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *listingRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.ListingStatus) error {
	const q = `UPDATE listings SET status=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
