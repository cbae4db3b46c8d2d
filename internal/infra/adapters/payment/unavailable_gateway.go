package payment

import (
	"context"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/ports/adapter"
)

var _ adapter.MobileMoneyGateway = (*UnavailableGateway)(nil)

// UnavailableGateway stands in when no mobile-money credentials are configured.
// Every operation returns the explicit Unavailable error kind instead of
// failing somewhere inside a provider call.
type UnavailableGateway struct{}

func NewUnavailableGateway() *UnavailableGateway { return &UnavailableGateway{} }

func (*UnavailableGateway) Name() string { return "unavailable" }

func (*UnavailableGateway) RequestCharge(ctx context.Context, _ adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	return nil, domain.ErrUnavailable
}

func (*UnavailableGateway) QueryStatus(ctx context.Context, _ string) (*adapter.TxnStatus, error) {
	return nil, domain.ErrUnavailable
}
