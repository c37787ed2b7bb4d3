package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a free-text name for comparison: lower-case,
// diacritics stripped, punctuation removed, whitespace collapsed. The result
// is a matching key, not display text. Pure and idempotent.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	folded := stripDiacritics(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// NormalizePhone strips everything but digits. Values with fewer than 8
// digits or consisting only of zeros (placeholder numbers in the source
// sheets) are unusable and map to "".
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 8 || strings.Trim(digits, "0") == "" {
		return ""
	}
	return digits
}

// PhoneKey reduces a phone number to its last 8 digits, absorbing country
// and area-code prefix inconsistencies (+56 9 1234 5678 and 912345678 share
// a key). Returns "" for unusable numbers.
func PhoneKey(s string) string {
	digits := NormalizePhone(s)
	if digits == "" {
		return ""
	}
	if len(digits) > 8 {
		digits = digits[len(digits)-8:]
	}
	if strings.Trim(digits, "0") == "" {
		return ""
	}
	return digits
}

// stripDiacritics removes combining marks via NFD decomposition.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
