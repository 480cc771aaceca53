package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

func wrapNextData(payload string) []byte {
	return []byte(fmt.Sprintf(
		`<html><body><script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`,
		payload,
	))
}

func TestPageMissingMarker(t *testing.T) {
	t.Parallel()

	_, err := Page([]byte(`<html><body>access denied</body></html>`))
	require.ErrorIs(t, err, pipeline.ErrMarkerNotFound)
	require.True(t, pipeline.IsExtractionError(err))
}

func TestPageMalformedPayload(t *testing.T) {
	t.Parallel()

	_, err := Page(wrapNextData(`{"props": not-json`))
	require.ErrorIs(t, err, pipeline.ErrPayloadInvalid)
	require.True(t, pipeline.IsExtractionError(err))
}

func TestPageFindsListingsInSearchResults(t *testing.T) {
	t.Parallel()

	page, err := Page(wrapNextData(`{
		"props": {"pageProps": {"searchResults": {"results": [
			{"id": "123", "title": "דירת 3 חדרים", "price": 4500, "address": "הרצל 12"},
			{"id": "456", "title": "סטודיו"}
		]}}}
	}`))
	require.NoError(t, err)
	require.Len(t, page.Listings, 2)
	require.Equal(t, "123", page.Listings[0].ExternalID())
	require.Equal(t, "4500", page.Listings[0].Price.String())
}

func TestPageFallsBackToFeedAndItems(t *testing.T) {
	t.Parallel()

	page, err := Page(wrapNextData(`{"pageProps": {"feed": {"feed": [{"token": "ab12"}]}}}`))
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	require.Equal(t, "ab12", page.Listings[0].ExternalID())

	page, err = Page(wrapNextData(`{"pageProps": {"items": [{"id": 9}]}}`))
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	require.Equal(t, "9", page.Listings[0].ExternalID())
}

func TestPageAbsentFieldsAreEmpty(t *testing.T) {
	t.Parallel()

	page, err := Page(wrapNextData(`{"pageProps": {"items": [{"id": "777"}]}}`))
	require.NoError(t, err)

	lead := page.Listings[0].Lead(7, "https://www.example.co.il")
	require.Equal(t, "777", lead.ExternalListingID)
	require.Empty(t, lead.Title)
	require.Empty(t, lead.Description)
	require.Equal(t, pipeline.StatusNew, lead.Status)
	require.Equal(t, "https://www.example.co.il/item/777", lead.ListingURL)
}

func TestListingURLResolution(t *testing.T) {
	t.Parallel()

	base := "https://www.example.co.il"

	n := ListingNode{Link: "/realestate/item/abc"}
	require.Equal(t, base+"/realestate/item/abc", n.ListingURL(base))

	n = ListingNode{URL: "https://other.example/item/1"}
	require.Equal(t, "https://other.example/item/1", n.ListingURL(base))

	n = ListingNode{}
	require.Empty(t, n.ListingURL(base))
}

func TestIsPrivateOwner(t *testing.T) {
	t.Parallel()

	require.True(t, ListingNode{MerchantType: "1"}.IsPrivateOwner())
	require.False(t, ListingNode{MerchantType: "2"}.IsPrivateOwner())
	require.True(t, ListingNode{AdType: "1"}.IsPrivateOwner())
	require.False(t, ListingNode{MerchantName: "רימקס חיפה"}.IsPrivateOwner())
	require.False(t, ListingNode{ContactName: "משרד תיווך כהן"}.IsPrivateOwner())
	require.True(t, ListingNode{ContactName: "יוסי"}.IsPrivateOwner())
}

func TestPostedToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	require.True(t, ListingNode{Date: "היום"}.PostedToday(now))
	require.True(t, ListingNode{Date: "5/3/24"}.PostedToday(now))
	require.True(t, ListingNode{Date: "05/03/2024"}.PostedToday(now))
	require.False(t, ListingNode{Date: "4/3/24"}.PostedToday(now))
	require.False(t, ListingNode{Date: ""}.PostedToday(now))
	require.False(t, ListingNode{Date: "yesterday"}.PostedToday(now))
}

func TestOwnerNamePrefersContact(t *testing.T) {
	t.Parallel()

	n := ListingNode{ContactName: "דנה", MerchantName: "מתווך"}
	require.Equal(t, "דנה", n.OwnerName())

	n = ListingNode{MerchantName: "מוטי"}
	require.Equal(t, "מוטי", n.OwnerName())
}

func TestFallbackIDStable(t *testing.T) {
	t.Parallel()

	a := FallbackID("0501234567", "הרצל 12", "2024-03-05")
	b := FallbackID("0501234567", "הרצל 12", "2024-03-05")
	c := FallbackID("0501234567", "הרצל 13", "2024-03-05")

	require.NotEmpty(t, a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
