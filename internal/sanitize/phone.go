package sanitize

import "regexp"

// DefaultCountryPrefix is the international prefix substituted for the
// leading local "0" of phone numbers from the source site's locale.
// This rule is regional (Israeli numbering plan); it is isolated here so
// a deployment against another site can swap it without touching
// extraction logic.
const DefaultCountryPrefix = "+972"

var nonDigits = regexp.MustCompile(`\D`)

// Phone normalizes a raw phone string: strips every non-digit, validates
// the local digit count (9 or 10), and replaces a leading local "0" with
// countryPrefix. Returns "" when the input is not a plausible number.
func Phone(raw, countryPrefix string) string {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) < 9 || len(digits) > 10 {
		return ""
	}
	if digits[0] == '0' {
		return countryPrefix + digits[1:]
	}
	return digits
}
