package matcher

import (
	"strings"

	"remittance-matching-service/internal/models"
)

// ExactNormalize canonicalizes an invoice reference for exact matching:
// surrounding whitespace is trimmed and the remainder is uppercased. An
// empty result means the input carries no usable key.
func ExactNormalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// RelaxedNormalize canonicalizes an invoice reference for relaxed matching:
// every character that is not an ASCII letter or digit is removed and the
// remainder is uppercased. This bridges punctuation and spacing differences
// such as "INV 39832" vs "INV-39832".
func RelaxedNormalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// NumericNormalize extracts the decimal digits of an invoice reference,
// concatenated in original order. Callers must apply the configured
// minimum-length floor before using the result as a lookup key.
func NumericNormalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// normalizeForPass computes the lookup key for one pass and reports whether
// the key is usable. Empty keys are never usable; numeric keys additionally
// require at least NumericKeyMinDigits digits.
func (c *Config) normalizeForPass(pass models.NormalizationPass, s string) (string, bool) {
	var key string

	switch pass {
	case models.PassExact:
		key = ExactNormalize(s)
	case models.PassRelaxed:
		key = RelaxedNormalize(s)
	case models.PassNumeric:
		key = NumericNormalize(s)
		if len(key) < c.NumericKeyMinDigits {
			return "", false
		}
	default:
		return "", false
	}

	if key == "" {
		return "", false
	}

	return key, true
}
