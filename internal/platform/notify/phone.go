package notify

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone converts a raw phone string to E.164. Separators and
// whitespace are stripped; bare 10-digit numbers get a +1 country code,
// 11-digit numbers starting with 1 get a leading +.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone number")
	}

	hasPlus := strings.HasPrefix(raw, "+")
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		} else if !strings.ContainsRune("+-(). ", r) {
			return "", fmt.Errorf("invalid character %q in phone number", r)
		}
	}

	d := digits.String()
	switch {
	case hasPlus:
		if len(d) < 8 || len(d) > 15 {
			return "", fmt.Errorf("phone number has %d digits, want 8-15", len(d))
		}
		return "+" + d, nil
	case len(d) == 10:
		return "+1" + d, nil
	case len(d) == 11 && d[0] == '1':
		return "+" + d, nil
	default:
		return "", fmt.Errorf("cannot normalize phone number %q", raw)
	}
}
