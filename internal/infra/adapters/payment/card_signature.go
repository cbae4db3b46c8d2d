package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"realty-payments/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*CardVerifier)(nil)

// CardVerifier binds the shared webhook secret to the WebhookVerifier port so
// tests can substitute a fake without process-wide state.
type CardVerifier struct{ secret string }

func NewCardVerifier(secret string) *CardVerifier { return &CardVerifier{secret: secret} }

func (v *CardVerifier) Verify(body []byte, signature string) bool {
	return VerifyCardWebhookSignature(v.secret, body, signature)
}

// VerifyCardWebhookSignature checks the card provider's webhook signature:
// hex(HMAC-SHA256(body, secret)) compared against the Signature header.
func VerifyCardWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
