package adapter

// WebhookVerifier authenticates an inbound card webhook body against its
// signature header before any ledger work happens.
type WebhookVerifier interface {
	Verify(body []byte, signature string) bool
}
