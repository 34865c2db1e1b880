// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Email lowercases and trims an email address. Empty or all-whitespace
// input normalizes to "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DisplayName trims surrounding whitespace but preserves case.
func DisplayName(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims a status value ("active", "disabled").
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// folder strips combining marks after NFD decomposition, so "Café" and
// "Cafe" fold to the same bytes.
var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold produces the case-insensitive, diacritics-stripped form stored in
// *_ci fields and used for prefix searches.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(folder, s); err == nil {
		s = out
	}
	return strings.ToLower(s)
}
