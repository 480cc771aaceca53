// Package sanitize normalizes free-text fields scraped from listings.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	extraSpaces = regexp.MustCompile(`\s+`)
	// Allow-list: letters in any script (the source site is Hebrew),
	// digits, and common punctuation. Everything else is dropped.
	strangeChars = regexp.MustCompile("[^\\p{L}\\p{N}_\\s.,\\-:;()\\[\\]{}?!/\\\\'\"+=*&^%$#@~`|]")
)

// Text collapses whitespace runs to a single space, strips characters
// outside the allow-list, and trims. Idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	// Strip first: a dropped character between two spaces must not leave
	// a double space behind.
	s = strangeChars.ReplaceAllString(s, "")
	s = extraSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
