package kiosk

import (
	"context"
	"log"
	"time"

	"kioskd/cache"
	"kioskd/fetch"
)

// Fetcher is the portal client surface the refresher needs. fetch.Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (body []byte, notModified bool, err error)
	PageURL() string
}

// Refresher keeps the display from ever looking stuck: it periodically
// re-fetches the page in the background and reconciles only the allow-listed
// regions with a brief cross-fade. After maxRetries consecutive failures it
// escalates to a full reload; that fallback is mandatory, not optional. A
// preload variant fires shortly before each refresh to populate the content
// cache so the real refresh is served without new network latency.
type Refresher struct {
	fetcher    Fetcher
	cache      *cache.ContentCache
	cacheKey   string
	surface    Surface
	maxRetries int
	reload     func(reason string)
	logger     *log.Logger

	retries       int
	reloadFired   bool
	applied       uint64
	lastSuccessAt time.Time
}

// NewRefresher wires the refresher. maxRetries below 1 defaults to 3.
func NewRefresher(fetcher Fetcher, c *cache.ContentCache, surface Surface, maxRetries int, reload func(string), logger *log.Logger) *Refresher {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = log.Default()
	}
	key := ""
	if fetcher != nil {
		key = cache.Key("GET", fetcher.PageURL(), fetch.RefreshMarker)
	}
	return &Refresher{
		fetcher:    fetcher,
		cache:      c,
		cacheKey:   key,
		surface:    surface,
		maxRetries: maxRetries,
		reload:     reload,
		logger:     logger,
	}
}

// CacheKey returns the request signature key for this page.
func (r *Refresher) CacheKey() string {
	if r == nil {
		return ""
	}
	return r.cacheKey
}

// ServeFromCache applies a still-fresh cached response, if one exists.
// Returns true when the refresh was satisfied without network traffic.
func (r *Refresher) ServeFromCache(now time.Time) bool {
	if r == nil || r.cache == nil {
		return false
	}
	entry, ok := r.cache.Get(r.cacheKey)
	if !ok {
		return false
	}
	if err := r.apply(entry.Payload); err != nil {
		return false
	}
	r.markSuccess(now)
	return true
}

// WarmStart renders the last cached content regardless of TTL. Used once at
// boot so a display restarting offline still shows something.
func (r *Refresher) WarmStart(now time.Time) bool {
	if r == nil || r.cache == nil {
		return false
	}
	entry, ok := r.cache.Stale(r.cacheKey)
	if !ok {
		return false
	}
	if err := r.apply(entry.Payload); err != nil {
		return false
	}
	r.logger.Printf("refresh: warm start from cache entry of %s", entry.StoredAt.Format(time.RFC3339))
	return true
}

// HandleResult consumes one completed background fetch. Preload outcomes only
// populate the cache; their failures are silently ignored.
func (r *Refresher) HandleResult(body []byte, notModified bool, err error, preload bool, now time.Time) {
	if r == nil {
		return
	}
	if preload {
		if err == nil && !notModified && len(body) > 0 {
			r.cache.Put(r.cacheKey, body)
		}
		return
	}
	if err != nil {
		r.fail(err.Error())
		return
	}
	if notModified {
		// The portal confirmed the content is current: success, no churn.
		r.markSuccess(now)
		return
	}
	if err := r.apply(body); err != nil {
		r.fail(err.Error())
		return
	}
	r.cache.Put(r.cacheKey, body)
	r.markSuccess(now)
}

func (r *Refresher) markSuccess(now time.Time) {
	r.retries = 0
	r.reloadFired = false
	r.applied++
	r.lastSuccessAt = now
}

func (r *Refresher) fail(cause string) {
	r.retries++
	r.logger.Printf("refresh: attempt failed (%d/%d): %s", r.retries, r.maxRetries, cause)
	if r.retries < r.maxRetries || r.reloadFired {
		return
	}
	r.reloadFired = true
	if r.reload != nil {
		r.reload("content refresh failed repeatedly")
	}
}

// apply replaces the allow-listed regions individually with a cross-fade.
// Regions missing from the response, and everything outside the allow list,
// are left untouched.
func (r *Refresher) apply(body []byte) error {
	ids := make([]string, len(refreshAllowList))
	for i, region := range refreshAllowList {
		ids[i] = string(region)
	}
	regions, err := fetch.ExtractRegions(body, ids)
	if err != nil {
		return err
	}
	if r.surface == nil {
		return nil
	}
	for _, region := range refreshAllowList {
		content, ok := regions[string(region)]
		if !ok {
			continue
		}
		target := r.surface.Region(region)
		if target == nil {
			r.logger.Printf("refresh: region %s has no render target, skipping", region)
			continue
		}
		target.SetContent(content, true)
	}
	return nil
}

// Retries reports the current consecutive failure count.
func (r *Refresher) Retries() int {
	if r == nil {
		return 0
	}
	return r.retries
}

// Applied reports the number of successful refreshes.
func (r *Refresher) Applied() uint64 {
	if r == nil {
		return 0
	}
	return r.applied
}

// LastSuccess returns the time of the most recent successful refresh.
func (r *Refresher) LastSuccess() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.lastSuccessAt
}
