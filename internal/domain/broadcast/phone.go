package broadcast

import (
	"strings"
	"unicode"
)

// NormalizePhone converts free-text phone numbers to E.164. Separators are
// dropped, a leading 00 becomes +, and numbers without an international
// prefix get defaultCountryCode. It reports false when the result cannot be a
// valid E.164 number (8 to 15 digits).
func NormalizePhone(raw, defaultCountryCode string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	international := strings.HasPrefix(strings.TrimLeft(s, "( "), "+")

	var digits strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '\t':
		default:
			return "", false
		}
	}

	d := digits.String()
	if !international && strings.HasPrefix(d, "00") {
		d = d[2:]
		international = true
	}
	if !international {
		d = strings.TrimLeft(defaultCountryCode, "+") + strings.TrimLeft(d, "0")
	}

	if len(d) < 8 || len(d) > 15 || d[0] == '0' {
		return "", false
	}
	return "+" + d, true
}

// Digits strips the leading + for gateways that expect bare MSISDNs.
func Digits(e164 string) string {
	return strings.TrimPrefix(e164, "+")
}
