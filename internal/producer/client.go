// Package producer fetches the raw state of watched sources and normalizes it
// into samples the change detector can compare.
package producer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRedditBaseURL = "https://www.reddit.com"
	defaultUserAgent     = "changewatch/1.0"
	defaultMaxBodyBytes  = 8 << 20
)

// Client performs the HTTP fetches for every source kind.
type Client struct {
	httpClient    *http.Client
	userAgent     string
	maxBodyBytes  int64
	redditBaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodyBytes caps the accepted response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithRedditBaseURL sets a custom Reddit base URL (for testing).
func WithRedditBaseURL(url string) Option {
	return func(c *Client) {
		c.redditBaseURL = url
	}
}

// NewClient creates a Client with a 30s timeout unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		userAgent:     defaultUserAgent,
		maxBodyBytes:  defaultMaxBodyBytes,
		redditBaseURL: defaultRedditBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches url and returns the body of a 200 response. A body over the
// size cap is an error; a partial page could hide the availability marker.
func (c *Client) get(ctx context.Context, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: source, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Source: source, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: source, URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	// one byte past the cap tells a full body from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Source: source, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &FetchError{Source: source, URL: url, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBodyBytes)}
	}
	return body, nil
}
