// Package extract locates and decodes the listing data embedded in
// rendered pages from the source site.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

// The source site is a Next.js application; every rendered page carries
// its state in a single script tag with a fixed id.
var nextDataPattern = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json">(.*?)</script>`)

// flexString decodes JSON values that the site emits inconsistently as
// either strings or numbers (price, room count, merchant type).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// ListingNode is one classified ad as it appears in the embedded payload.
// Fields absent in the source decode to empty strings, never errors.
type ListingNode struct {
	ID           flexString `json:"id"`
	Token        flexString `json:"token"`
	Title        flexString `json:"title"`
	Price        flexString `json:"price"`
	Address      flexString `json:"address"`
	Neighborhood flexString `json:"neighborhood"`
	PropertyType flexString `json:"property_type"`
	Description  flexString `json:"description"`
	SquareMeters flexString `json:"square_meters"`
	Rooms        flexString `json:"rooms"`
	Date         flexString `json:"date"`
	ContactName  flexString `json:"contact_name"`
	MerchantName flexString `json:"merchantName"`
	MerchantType flexString `json:"merchantType"`
	AdType       flexString `json:"adType"`
	Link         flexString `json:"link"`
	URL          flexString `json:"url"`
}

type pageProps struct {
	SearchResults *struct {
		Results []ListingNode `json:"results"`
	} `json:"searchResults"`
	Feed *struct {
		Feed []ListingNode `json:"feed"`
	} `json:"feed"`
	Items []ListingNode `json:"items"`
}

type nextData struct {
	Props *struct {
		PageProps *pageProps `json:"pageProps"`
	} `json:"props"`
	PageProps *pageProps `json:"pageProps"`
}

// ParsedPage holds the decoded embedded payload for one fetched page.
type ParsedPage struct {
	Raw      json.RawMessage
	Listings []ListingNode
}

// Page locates the embedded JSON block in html and decodes it. The two
// failure modes are deliberate sentinels so the orchestrator can treat
// both as skip-this-page, never run-fatal.
func Page(html []byte) (*ParsedPage, error) {
	m := nextDataPattern.FindSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("locate embedded data: %w", pipeline.ErrMarkerNotFound)
	}
	raw := m[1]
	var data nextData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode embedded data: %w (%v)", pipeline.ErrPayloadInvalid, err)
	}

	props := data.PageProps
	if data.Props != nil && data.Props.PageProps != nil {
		props = data.Props.PageProps
	}

	page := &ParsedPage{Raw: json.RawMessage(raw)}
	if props == nil {
		return page, nil
	}
	switch {
	case props.SearchResults != nil && len(props.SearchResults.Results) > 0:
		page.Listings = props.SearchResults.Results
	case props.Feed != nil && len(props.Feed.Feed) > 0:
		page.Listings = props.Feed.Feed
	default:
		page.Listings = props.Items
	}
	return page, nil
}

// ExternalID returns the site's stable identifier for this listing, or ""
// when the payload carries none.
func (n ListingNode) ExternalID() string {
	if n.Token != "" {
		return n.Token.String()
	}
	return n.ID.String()
}

// ListingURL resolves the canonical URL for this listing against baseURL.
func (n ListingNode) ListingURL(baseURL string) string {
	for _, candidate := range []string{n.Link.String(), n.URL.String()} {
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, "http") {
			return candidate
		}
		return strings.TrimSuffix(baseURL, "/") + candidate
	}
	if id := n.ExternalID(); id != "" {
		return strings.TrimSuffix(baseURL, "/") + "/item/" + id
	}
	return ""
}

// OwnerName prefers the contact name, falling back to the merchant name.
func (n ListingNode) OwnerName() string {
	if n.ContactName != "" {
		return n.ContactName.String()
	}
	return n.MerchantName.String()
}

// agencyIndicators mark listings posted by brokerages rather than private
// owners. Hebrew strings match the source site's merchant names.
var agencyIndicators = []string{"תיווך", `נדל"ן`, "רימקס", "רי/מקס", "סנצ'ורי", "אנגלו סכסון"}

// IsPrivateOwner reports whether the listing comes from a private owner
// rather than a real-estate agency. Defaults to true when the payload
// gives no signal either way.
func (n ListingNode) IsPrivateOwner() bool {
	if n.MerchantType != "" {
		return n.MerchantType == "1"
	}
	if n.AdType != "" {
		return n.AdType == "1"
	}
	for _, name := range []string{n.MerchantName.String(), n.ContactName.String()} {
		for _, indicator := range agencyIndicators {
			if strings.Contains(name, indicator) {
				return false
			}
		}
	}
	return true
}

var (
	shortDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
	longDate  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// PostedToday reports whether the listing's publish date is now's date.
// The site shows either the Hebrew word for "today" or DD/MM/YY(YY).
func (n ListingNode) PostedToday(now time.Time) bool {
	date := strings.ToLower(strings.TrimSpace(n.Date.String()))
	if date == "" {
		return false
	}
	if strings.Contains(date, "היום") {
		return true
	}
	var day, month, year int
	if m := shortDate.FindStringSubmatch(date); m != nil {
		day, month, year = atoi(m[1]), atoi(m[2]), 2000+atoi(m[3])
	} else if m := longDate.FindStringSubmatch(date); m != nil {
		day, month, year = atoi(m[1]), atoi(m[2]), atoi(m[3])
	} else {
		return false
	}
	y, mo, d := now.Date()
	return year == y && month == int(mo) && day == d
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// Lead maps the listing node onto the persistent lead shape. Free-text
// fields are still raw here; sanitization is a separate pipeline step.
func (n ListingNode) Lead(tenantID int64, baseURL string) pipeline.Lead {
	return pipeline.Lead{
		TenantID:          tenantID,
		ExternalListingID: n.ExternalID(),
		Title:             n.Title.String(),
		Price:             n.Price.String(),
		Address:           n.Address.String(),
		Neighborhood:      n.Neighborhood.String(),
		PropertyType:      n.PropertyType.String(),
		Description:       n.Description.String(),
		ListingURL:        n.ListingURL(baseURL),
		OwnerName:         n.OwnerName(),
		ApartmentSize:     n.SquareMeters.String(),
		RoomsCount:        n.Rooms.String(),
		PublishDate:       n.Date.String(),
		Status:            pipeline.StatusNew,
	}
}
