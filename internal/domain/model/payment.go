package model

import "time"

type PaymentChannel string

const (
	ChannelCard        PaymentChannel = "card"
	ChannelMobileMoney PaymentChannel = "mobile_money"
	ChannelManual      PaymentChannel = "manual"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // intent recorded, no confirmation yet
	PaymentStatusSubmitted PaymentStatus = "submitted" // payer asserts they paid; not verified
	PaymentStatusConfirmed PaymentStatus = "confirmed" // terminal success
	PaymentStatusFailed    PaymentStatus = "failed"    // terminal failure
	PaymentStatusCancelled PaymentStatus = "cancelled" // terminal, abandoned
)

// ActivationState tracks entitlement granting separately from payment status.
// A payment can be confirmed while its entitlement write is still outstanding.
type ActivationState string

const (
	ActivationNone    ActivationState = "none"
	ActivationPending ActivationState = "pending"
	ActivationDone    ActivationState = "done"
	ActivationFailed  ActivationState = "failed"
)

// transitions lists the legal forward edges of the payment state machine.
// Terminal states have no outgoing edges.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusSubmitted, PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusSubmitted: {PaymentStatusConfirmed, PaymentStatusFailed},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing edges.
func Terminal(s PaymentStatus) bool {
	return len(transitions[s]) == 0
}

// Payment records a single payment attempt. One row per (channel, external
// reference) pair; that pair is the idempotency key for every ingestion path.
type Payment struct {
	ID          string         // UUID
	Channel     PaymentChannel // card | mobile_money | manual
	ExternalRef string         // per-channel idempotency key
	Status      PaymentStatus
	Activation  ActivationState
	Amount      int64  // minor units
	Currency    string // e.g. "XAF"
	SubjectID   *string
	PayerID     *string
	PayerPhone  string                 // sender msisdn (mobile money / manual attestation)
	TxnID       string                 // provider transaction id
	RawEvent    map[string]interface{} // retained provider payload (JSONB)
	ConfirmedBy *string                // admin actor for manual confirms
	SubmittedAt *time.Time
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
