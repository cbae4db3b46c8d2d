package repository

import (
	"context"
	"time"

	"realty-payments/internal/domain/model"
)

type ListingRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)

	// ExtendBoost pushes boosted_until forward to at least `until`. A shorter
	// window never overwrites a longer one.
	ExtendBoost(ctx context.Context, tx Tx, id string, until time.Time) error

	SetStatus(ctx context.Context, tx Tx, id string, status model.ListingStatus) error
}
