// Package store persists kiosk-local state in a Pebble key/value store: the
// bounded runtime error log and the best-effort content cache spill. All
// writes are best-effort; a broken store degrades the kiosk to in-memory
// operation and never halts the rotation.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	jsoniter "github.com/json-iterator/go"
)

const (
	errorPrefix  = "e|"
	cachePrefix  = "c|"
	metaErrorSeq = "meta|error_seq"

	defaultCacheSizeBytes = int64(8 << 20)
	bloomFilterBits       = 10
)

var (
	errStoreClosed = errors.New("store: closed")

	json = jsoniter.ConfigCompatibleWithStandardLibrary

	cacheLowerBound = []byte(cachePrefix)
	cacheUpperBound = []byte{'c', '|' + 1}
)

// Store wraps a Pebble database shared by the error log and the cache spill.
// Key space: "e|<seq mod cap>" error records, "c|<key>" cache entries,
// "meta|*" counters.
type Store struct {
	mu    sync.Mutex
	db    *pebble.DB
	cache *pebble.Cache
	path  string
}

// CachedEntry is the persisted form of a content-cache entry.
type CachedEntry struct {
	Key      string `json:"key"`
	Payload  []byte `json:"payload"`
	StoredAt int64  `json:"stored_at_ms"`
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store: directory is empty")
	}
	opts := &pebble.Options{
		Cache: pebble.NewCache(defaultCacheSizeBytes),
	}
	level := pebble.LevelOptions{
		FilterPolicy: bloom.FilterPolicy(bloomFilterBits),
		FilterType:   pebble.TableFilter,
	}
	opts.Levels = make([]pebble.LevelOptions, 7)
	for i := range opts.Levels {
		opts.Levels[i] = level
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		opts.Cache.Unref()
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	return &Store{db: db, cache: opts.Cache, path: dir}, nil
}

// Close releases Pebble resources. Safe on nil receivers and repeated calls.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if s.cache != nil {
		s.cache.Unref()
		s.cache = nil
	}
	return nil
}

// Path returns the store directory for diagnostics.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// PutCache persists one cache entry under the cache prefix.
func (s *Store) PutCache(key string, payload []byte, storedAt time.Time) error {
	if s == nil {
		return errStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errStoreClosed
	}
	data, err := json.Marshal(CachedEntry{
		Key:      key,
		Payload:  payload,
		StoredAt: storedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("store: encode cache entry: %w", err)
	}
	return s.db.Set([]byte(cachePrefix+key), data, pebble.NoSync)
}

// DeleteCache removes one persisted cache entry.
func (s *Store) DeleteCache(key string) error {
	if s == nil {
		return errStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errStoreClosed
	}
	return s.db.Delete([]byte(cachePrefix+key), pebble.NoSync)
}

// EachCache iterates all persisted cache entries. Decode failures skip the
// record rather than aborting the walk.
func (s *Store) EachCache(fn func(CachedEntry)) error {
	if s == nil || fn == nil {
		return errStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errStoreClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: cacheLowerBound,
		UpperBound: cacheUpperBound,
	})
	if err != nil {
		return fmt.Errorf("store: cache iterator: %w", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		var entry CachedEntry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue
		}
		fn(entry)
	}
	return iter.Error()
}

func (s *Store) setLocked(key string, value []byte) error {
	if s.db == nil {
		return errStoreClosed
	}
	return s.db.Set([]byte(key), value, pebble.NoSync)
}

func (s *Store) getLocked(key string) ([]byte, error) {
	if s.db == nil {
		return nil, errStoreClosed
	}
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	_ = closer.Close()
	return out, nil
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func decodeSeq(data []byte) (uint64, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}
