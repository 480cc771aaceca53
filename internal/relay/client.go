// Package relay implements Fetcher against a ZenRows-style anti-bot relay.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

// Config controls relay client behavior.
type Config struct {
	APIKey       string
	Endpoint     string
	ProxyCountry string
	UserAgent    string
	AcceptLang   string
	Timeout      time.Duration
}

// Client fetches pages through the relay. Every request goes through the
// relay endpoint, never directly to the target site. The client performs
// no retries; that policy lives in the retry package.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a relay Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("relay.api_key is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("relay.endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("parse relay endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Fetch retrieves one rendered page through the relay.
func (c *Client) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.FetchResponse, error) {
	target, err := c.buildURL(request)
	if err != nil {
		return pipeline.FetchResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return pipeline.FetchResponse{}, fmt.Errorf("build relay request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.AcceptLang != "" {
		req.Header.Set("Accept-Language", c.cfg.AcceptLang)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")

	pipeline.TotalRequests.Inc()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		pipeline.TotalRequestErrors.Inc()
		return pipeline.FetchResponse{}, &pipeline.TransportError{URL: request.URL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close relay response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		pipeline.TotalRequestErrors.Inc()
		return pipeline.FetchResponse{}, &pipeline.TransportError{URL: request.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pipeline.TotalRequestErrors.Inc()
		return pipeline.FetchResponse{}, &pipeline.TransportError{URL: request.URL, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("relay fetch succeeded",
		zap.String("url", request.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return pipeline.FetchResponse{
		URL:        request.URL,
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

func (c *Client) buildURL(request pipeline.FetchRequest) (string, error) {
	base, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse relay endpoint: %w", err)
	}
	q := base.Query()
	q.Set("url", request.URL)
	q.Set("apikey", c.cfg.APIKey)
	q.Set("custom_headers", "true")
	q.Set("premium_proxy", "true")
	q.Set("original_status", "true")
	if c.cfg.ProxyCountry != "" {
		q.Set("proxy_country", c.cfg.ProxyCountry)
	}
	if request.JSRender {
		q.Set("js_render", "true")
	}
	if request.JSInstructions != "" {
		q.Set("js_instructions", request.JSInstructions)
	}
	if request.Outputs != "" {
		q.Set("outputs", request.Outputs)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}
