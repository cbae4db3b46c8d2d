//go:build !integration

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyCardWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"type":"payment_intent.succeeded"}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		if !VerifyCardWebhookSignature(secret, body, sign(secret, body)) {
			t.Error("valid signature rejected")
		}
	})

	t.Run("accepts uppercase hex and surrounding whitespace", func(t *testing.T) {
		sig := "  " + strings.ToUpper(sign(secret, body)) + " "
		if !VerifyCardWebhookSignature(secret, body, sig) {
			t.Error("whitespace-padded signature rejected")
		}
	})

	t.Run("rejects a signature over a different body", func(t *testing.T) {
		if VerifyCardWebhookSignature(secret, body, sign(secret, []byte(`{"tampered":true}`))) {
			t.Error("signature for a different body accepted")
		}
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		if VerifyCardWebhookSignature(secret, body, sign("other", body)) {
			t.Error("signature under the wrong secret accepted")
		}
	})

	t.Run("rejects empty secret or signature", func(t *testing.T) {
		if VerifyCardWebhookSignature("", body, sign("", body)) {
			t.Error("empty secret accepted")
		}
		if VerifyCardWebhookSignature(secret, body, "") {
			t.Error("empty signature accepted")
		}
	})
}

func TestCardVerifier(t *testing.T) {
	v := NewCardVerifier("whsec_test")
	body := []byte(`{}`)
	if !v.Verify(body, sign("whsec_test", body)) {
		t.Error("verifier rejected a valid signature")
	}
	if v.Verify(body, "deadbeef") {
		t.Error("verifier accepted garbage")
	}
}
