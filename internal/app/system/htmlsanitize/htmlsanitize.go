// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-supplied content before it is stored.
// Post and comment bodies keep a safe HTML subset; titles and display
// names are reduced to plain text.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps the user-generated-content HTML subset (paragraphs,
// emphasis, lists, links, code blocks) and strips everything else,
// including scripts and event-handler attributes.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// StripTags removes all markup, leaving text content only.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s contains no HTML tags. A bare '<' or '>'
// (e.g. "5 < 10") does not count as markup.
func IsPlainText(s string) bool {
	lt := strings.IndexByte(s, '<')
	if lt < 0 {
		return true
	}
	return strings.IndexByte(s[lt:], '>') < 0
}
