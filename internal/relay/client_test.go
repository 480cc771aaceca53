package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:       "test-key",
		Endpoint:     endpoint,
		ProxyCountry: "il",
		UserAgent:    "Mozilla/5.0 (test)",
		AcceptLang:   "he-IL,he;q=0.9",
		Timeout:      2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestFetchBuildsRelayQuery(t *testing.T) {
	t.Parallel()

	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Fetch(context.Background(), pipeline.FetchRequest{
		URL:      "https://example.com/realestate/rent?page=2",
		JSRender: true,
		Outputs:  "phone_numbers",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []byte("<html>ok</html>"), resp.Body)

	q := got.URL.Query()
	require.Equal(t, "https://example.com/realestate/rent?page=2", q.Get("url"))
	require.Equal(t, "test-key", q.Get("apikey"))
	require.Equal(t, "true", q.Get("js_render"))
	require.Equal(t, "true", q.Get("premium_proxy"))
	require.Equal(t, "il", q.Get("proxy_country"))
	require.Equal(t, "phone_numbers", q.Get("outputs"))
	require.Equal(t, "Mozilla/5.0 (test)", got.Header.Get("User-Agent"))
	require.Equal(t, "he-IL,he;q=0.9", got.Header.Get("Accept-Language"))
}

func TestFetchNon2xxIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://example.com"})

	var terr *pipeline.TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusTooManyRequests, terr.StatusCode)
}

func TestFetchNetworkFailureIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL)
	_, err := c.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://example.com"})

	var terr *pipeline.TransportError
	require.ErrorAs(t, err, &terr)
	require.Zero(t, terr.StatusCode)
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Endpoint: "https://relay.example"}, zap.NewNop())
	require.Error(t, err)

	_, err = New(Config{APIKey: "k"}, zap.NewNop())
	require.Error(t, err)
}
