package adapter

import (
	"context"
	"time"
)

// ChargeRequest is the provider push-payment request: the subscriber block
// identifies the payer's wallet, the transaction block our reference.
type ChargeRequest struct {
	MSISDN      string // international format, no leading +
	Amount      int64
	Currency    string
	Reference   string // our unique reference, echoed back in callbacks
	Description string
}

// ChargeResult is the provider's acceptance of a charge request. The payer
// still authorizes out-of-band (PIN prompt on their handset).
type ChargeResult struct {
	TxnID  string // provider-side transaction id
	Status string // provider status code at acceptance time
}

// TxnStatus is the provider's view of a transaction, from callback or poll.
type TxnStatus struct {
	Reference string
	Status    string // provider status code, e.g. "TS", "TF", "TIP"
	TxnID     string
	Amount    int64
	CreatedAt time.Time
}

// MobileMoneyGateway is the hex port for the mobile-money provider. Every call
// authenticates with a bearer token managed by the implementation.
type MobileMoneyGateway interface {
	Name() string

	// RequestCharge initiates a push payment. Implementations must obtain a
	// valid token first and bound the call with a timeout.
	RequestCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// QueryStatus fetches the current transaction status for a reference
	// (the pull half of the dual reconciliation paths).
	QueryStatus(ctx context.Context, reference string) (*TxnStatus, error)
}
