// Package restclient is the JSON-over-HTTP GET client shared by the market data backends.
package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/pkg/market"
)

const (
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
	maxErrorBody            = 512
)

// Client issues GET requests against a base URL, retrying transport failures,
// 429 and 5xx responses with exponential backoff.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	auth       func(q url.Values, h http.Header)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial delay between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithQueryAuth adds a credential query parameter to every request.
func WithQueryAuth(param, value string) Option {
	return func(c *Client) {
		c.auth = func(q url.Values, _ http.Header) {
			q.Set(param, value)
		}
	}
}

// WithHeaderAuth adds a credential header to every request.
func WithHeaderAuth(header, value string) Option {
	return func(c *Client) {
		c.auth = func(_ url.Values, h http.Header) {
			h.Set(header, value)
		}
	}
}

// New constructs a client; name prefixes errors and log lines.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.name
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// GetJSON fetches path with query and decodes the body into out.
// 404 maps to market.ErrNotFound; other failures wrap market.ErrUpstream.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return market.UpstreamError(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Get fetches path with query and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.auth != nil {
		c.auth(query, header)
	}
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", c.name, err)
		}
		req.Header = header.Clone()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%s: %w", c.name, market.ErrNotFound)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				statusErr := &StatusError{Status: resp.StatusCode, Body: truncate(string(body))}
				if !retryable(resp.StatusCode) {
					return nil, market.UpstreamError(c.name, statusErr)
				}
				lastErr = statusErr
			default:
				return body, nil
			}
		}

		if attempt < c.maxRetries {
			logx.WithContext(ctx).Infof("%s: attempt %d failed, retrying in %s: %v", c.name, attempt+1, backoff, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("request failed without error detail")
	}
	return nil, market.UpstreamError(c.name, lastErr)
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
