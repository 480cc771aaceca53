package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

// Israeli local-format numbers: leading zero, non-zero area digit, then
// seven or eight digits.
var phonePattern = regexp.MustCompile(`0[2-9][0-9]{7,8}`)

// PhoneNumber pulls the first local-format phone number out of a reveal
// response. It tries a plain pattern match over the whole body first,
// then falls back to the elements the site renders phone numbers into.
// Returns ErrPhoneNotFound when nothing matches; the caller leaves the
// lead's phone empty in that case.
func PhoneNumber(body []byte) (string, error) {
	if m := phonePattern.Find(body); m != nil {
		return string(m), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse reveal response: %w", pipeline.ErrPhoneNotFound)
	}

	var found string
	doc.Find(".viewPhone, .phone-number, [data-phone]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := phonePattern.FindString(sel.Text()); m != "" {
			found = m
			return false
		}
		if attr, ok := sel.Attr("data-phone"); ok && strings.TrimSpace(attr) != "" {
			found = strings.TrimSpace(attr)
			return false
		}
		return true
	})
	if found == "" {
		return "", pipeline.ErrPhoneNotFound
	}
	return found, nil
}
