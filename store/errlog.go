package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrorRecord is one persisted runtime error.
type ErrorRecord struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	UserAgent string `json:"user_agent"`
	At        int64  `json:"at_ms"`
}

// Time returns the record timestamp.
func (r ErrorRecord) Time() time.Time {
	return time.UnixMilli(r.At)
}

// ErrorLog is a bounded append-only error record, overwritten oldest-first
// beyond the cap. Records live in the shared store when one is available and
// in memory otherwise, so logging errors never depends on a healthy disk.
type ErrorLog struct {
	mu        sync.Mutex
	store     *Store
	cap       int
	seq       uint64
	userAgent string
	fallback  []ErrorRecord
}

// NewErrorLog builds the error log over an optional store. A nil store or a
// store that fails on first use switches the log to its in-memory ring.
func NewErrorLog(s *Store, cap int, userAgent string) *ErrorLog {
	if cap <= 0 {
		cap = 50
	}
	l := &ErrorLog{store: s, cap: cap, userAgent: userAgent}
	l.seq = l.loadSeq()
	return l
}

func (l *ErrorLog) loadSeq() uint64 {
	if l.store == nil {
		return 0
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	data, err := l.store.getLocked(metaErrorSeq)
	if err != nil {
		return 0
	}
	seq, ok := decodeSeq(data)
	if !ok {
		return 0
	}
	return seq
}

// Append records one error. Best-effort: persistence failures fall back to
// the in-memory ring and are not reported upward.
func (l *ErrorLog) Append(kind, message string, at time.Time) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := ErrorRecord{
		Seq:       l.seq,
		Kind:      kind,
		Message:   message,
		UserAgent: l.userAgent,
		At:        at.UnixMilli(),
	}
	l.seq++

	if l.persist(rec) {
		return
	}
	l.fallback = append(l.fallback, rec)
	if len(l.fallback) > l.cap {
		l.fallback = l.fallback[len(l.fallback)-l.cap:]
	}
}

func (l *ErrorLog) persist(rec ErrorRecord) bool {
	if l.store == nil {
		return false
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false
	}
	// The slot key is seq mod cap, so slot reuse implements oldest-first
	// overwrite without a separate compaction step.
	key := fmt.Sprintf("%s%08d", errorPrefix, rec.Seq%uint64(l.cap))
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.store.setLocked(key, data); err != nil {
		return false
	}
	_ = l.store.setLocked(metaErrorSeq, encodeSeq(l.seq))
	return true
}

// List returns up to cap records, newest first.
func (l *ErrorLog) List() []ErrorRecord {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.listPersisted()
	records = append(records, l.fallback...)
	sort.Slice(records, func(i, j int) bool { return records[i].Seq > records[j].Seq })
	if len(records) > l.cap {
		records = records[:l.cap]
	}
	return records
}

// Count returns the number of retained records.
func (l *ErrorLog) Count() int {
	return len(l.List())
}

func (l *ErrorLog) listPersisted() []ErrorRecord {
	if l.store == nil {
		return nil
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if l.store.db == nil {
		return nil
	}
	var records []ErrorRecord
	for slot := 0; slot < l.cap; slot++ {
		key := fmt.Sprintf("%s%08d", errorPrefix, slot)
		data, err := l.store.getLocked(key)
		if err != nil {
			if errors.Is(err, pebble.ErrNotFound) {
				continue
			}
			break
		}
		var rec ErrorRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}
