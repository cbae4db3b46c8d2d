package model

import "time"

type ListingStatus string

const (
	ListingStatusDraft   ListingStatus = "draft"
	ListingStatusOnline  ListingStatus = "online"
	ListingStatusOffline ListingStatus = "offline"
)

// Listing holds only the fields this subsystem touches: the boost window and
// the publication status flipped by a manual payment confirmation.
type Listing struct {
	ID           string
	OwnerID      string
	Status       ListingStatus
	BoostedUntil *time.Time
	UpdatedAt    time.Time
}
