// Package fetch issues the kiosk's content refresh requests against the
// facility portal and extracts the allow-listed page regions from the
// response. Requests carry a header and query marker so the portal can tell
// internal refresh traffic from visitors.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// RefreshMarker identifies internal refresh traffic in the query string.
	RefreshMarker = "kiosk=refresh"

	refreshHeader  = "X-Kiosk-Refresh"
	maxBodyBytes   = 4 << 20
	defaultTimeout = 10 * time.Second
)

// Client fetches the kiosk page with conditional-request support. At most one
// request is outstanding at a time by construction (the refresher is periodic
// and retry-gated), so the conditional fields need no locking.
type Client struct {
	pageURL      string
	userAgent    string
	client       *http.Client
	etag         string
	lastModified string
}

// NewClient builds a client for the given portal page.
func NewClient(baseURL, pagePath, userAgent string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	page, err := joinPage(baseURL, pagePath)
	if err != nil {
		return nil, err
	}
	return &Client{
		pageURL:   page,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func joinPage(baseURL, pagePath string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("fetch: parse base url: %w", err)
	}
	ref, err := url.Parse(pagePath)
	if err != nil {
		return "", fmt.Errorf("fetch: parse page path: %w", err)
	}
	page := base.ResolveReference(ref)
	query := page.Query()
	query.Set("kiosk", "refresh")
	page.RawQuery = query.Encode()
	return page.String(), nil
}

// PageURL returns the marked page URL; it doubles as the cache signature.
func (c *Client) PageURL() string {
	if c == nil {
		return ""
	}
	return c.pageURL
}

// Fetch performs one refresh GET. notModified is true when the portal
// answered 304 to a conditional request; body is nil in that case.
func (c *Client) Fetch(ctx context.Context) (body []byte, notModified bool, err error) {
	if c == nil {
		return nil, false, fmt.Errorf("fetch: nil client")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set(refreshHeader, "1")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}
	if c.lastModified != "" {
		req.Header.Set("If-Modified-Since", c.lastModified)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, true, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, false, err
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		c.etag = etag
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		c.lastModified = lm
	}
	return body, false, nil
}

// Probe reports whether the portal answers at all. Any HTTP response counts
// as online; only transport failures count as offline.
func Probe(ctx context.Context, probeURL string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
