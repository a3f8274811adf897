package applicant

import "strings"

// Normalization rules for duplicate matching. All functions are idempotent:
// applying one twice yields the same value as applying it once.

// NormalizeEmail lowercases and trims an address for matching.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName lowercases, trims, and collapses interior whitespace so
// "Jane  Doe " and "jane doe" match.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizePhone strips spacing and punctuation commonly found in phone
// input, preserving a leading plus.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
