// Package cache provides the time-boxed content cache used by the resilience
// refresher and its preload path. Entries expire by filter-on-read; the cache
// optionally spills to the local store so a restarting display can render the
// last known content before the first fetch completes.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"kioskd/store"
)

// Entry is one cached response.
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// Persister is the subset of the store the cache writes through to.
// Failures are swallowed; persistence is best-effort by contract.
type Persister interface {
	PutCache(key string, payload []byte, storedAt time.Time) error
	DeleteCache(key string) error
	EachCache(fn func(store.CachedEntry)) error
}

// ContentCache maps request signatures to cached responses with a fixed TTL.
type ContentCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
	persist Persister
}

// New builds a cache with the given TTL. persist may be nil. When a persister
// is supplied, surviving entries from the previous run are loaded eagerly.
func New(ttl time.Duration, persist Persister, now func() time.Time) *ContentCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	c := &ContentCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
		persist: persist,
	}
	c.warmStart()
	return c
}

func (c *ContentCache) warmStart() {
	if c.persist == nil {
		return
	}
	_ = c.persist.EachCache(func(e store.CachedEntry) {
		c.entries[e.Key] = Entry{
			Key:      e.Key,
			Payload:  e.Payload,
			StoredAt: time.UnixMilli(e.StoredAt),
		}
	})
}

// Key derives the cache key for a request signature. The marker distinguishes
// internal refresh traffic from any other caller sharing the store.
func Key(method, url, marker string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(method+" "+url+" "+marker))
}

// Get returns the entry for key if it is still within the TTL. An expired
// entry is dropped on the way out (filter-on-read, no sweeper required).
func (c *ContentCache) Get(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(entry.StoredAt) > c.ttl {
		delete(c.entries, key)
		if c.persist != nil {
			_ = c.persist.DeleteCache(key)
		}
		return Entry{}, false
	}
	return entry, true
}

// Stale returns the entry for key even past the TTL. The warm-start path uses
// this to render something while the first fetch is in flight.
func (c *ContentCache) Stale(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Put stores payload under key, stamped with the current time. Last write
// wins per key.
func (c *ContentCache) Put(key string, payload []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = Entry{Key: key, Payload: payload, StoredAt: now}
	if c.persist != nil {
		_ = c.persist.PutCache(key, payload, now)
	}
}

// Sweep drops all expired entries. The performance governor calls this as
// part of proactive cleanup; normal operation relies on filter-on-read.
func (c *ContentCache) Sweep() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	dropped := 0
	for key, entry := range c.entries {
		if now.Sub(entry.StoredAt) > c.ttl {
			delete(c.entries, key)
			if c.persist != nil {
				_ = c.persist.DeleteCache(key)
			}
			dropped++
		}
	}
	return dropped
}

// Len reports the number of resident entries, expired or not.
func (c *ContentCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
