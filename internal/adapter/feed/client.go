// Package feed fetches the raw dining feed over HTTP.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a feed response is read into memory. A
// larger body is an error rather than a truncated document.
const maxBodyBytes = 32 << 20

// Client issues GET {baseURL}/eateries.json and returns the body untouched.
type Client struct {
	httpClient *http.Client
	url        string
	maxBody    int64
	logger     *slog.Logger
}

// NewClient creates a feed client. timeout bounds the whole request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:     strings.TrimRight(baseURL, "/") + "/eateries.json",
		maxBody: maxBodyBytes,
		logger:  logger.With("component", "feed"),
	}
}

// CacheKey identifies the request this client issues.
func (c *Client) CacheKey() string {
	return http.MethodGet + " " + c.url
}

// Fetch performs the request. Any non-2xx status is an error; the envelope
// itself is not inspected.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed error: status %d: %s", resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("feed body too large: exceeds %d bytes", c.maxBody)
	}
	c.logger.Debug("feed fetched", "url", c.url, "bytes", len(body))
	return body, nil
}
