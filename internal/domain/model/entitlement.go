package model

import "time"

// Subscription is the per-user premium entitlement. Mutated only by the
// activation engine and the out-of-band expiry sweep.
type Subscription struct {
	UserID    string
	Active    bool
	Plan      string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one append-only audit line per activation. PaymentID carries
// a unique constraint, which is what makes the activation engine idempotent.
type HistoryEntry struct {
	ID        string
	PaymentID string
	UserID    string
	Amount    int64
	Currency  string
	Channel   PaymentChannel
	Outcome   string // "activated" | "boosted"
	CreatedAt time.Time
}
