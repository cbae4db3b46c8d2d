package usecase

import (
	"regexp"
	"strings"

	"realty-payments/internal/domain"
)

// Gabonese mobile numbers: optional +241/241 country code, optional leading
// zero, then a 7-prefixed 8-digit subscriber number.
var msisdnRe = regexp.MustCompile(`^(?:\+?241)?(0?7\d{7})$`)

// NormalizeMSISDN converts a user-entered phone number to the provider's
// international format (e.g. "074000000" -> "24174000000").
func NormalizeMSISDN(raw string) (string, error) {
	s := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.TrimSpace(raw))
	m := msisdnRe.FindStringSubmatch(s)
	if m == nil {
		return "", domain.ErrInvalidPhoneFormat
	}
	return "241" + strings.TrimPrefix(m[1], "0"), nil
}
