package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client performs a single fetch attempt against the questions API. It does
// not retry; that is the Fetcher's job.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a questions API client with a hard per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch issues one GET against the API and returns the raw response body.
// Any transport error or non-2xx status is reported as a failed attempt;
// the caller decides whether to try again.
func (c *Client) Fetch(ctx context.Context, count int, topic string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid questions API URL: %w", err)
	}

	q := u.Query()
	q.Set("qtd", strconv.Itoa(count))
	if topic != "" {
		q.Set("topico", topic)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("questions API returned status %d", resp.StatusCode)
	}

	return body, nil
}
