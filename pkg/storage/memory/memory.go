// Package memory provides an in-memory implementation of prefs.Backend for
// the session scope, tests, and lightweight deployments. Entries are lost
// when the process restarts. Optional LRU eviction, byte budgets, and TTL
// expiry bound memory usage.
package memory

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage"
)

// entry holds one stored value and its bookkeeping.
type entry struct {
	value     []byte
	expiresAt time.Time     // zero = never expires
	lruElem   *list.Element // position in LRU list
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Options bound the store. Zero values mean unlimited and no expiry.
type Options struct {
	// MaxEntries evicts the least recently written entry when a write
	// would exceed this many entries.
	MaxEntries int

	// MaxValueBytes rejects any single value larger than this with
	// storage.ErrQuotaExceeded.
	MaxValueBytes int

	// MaxTotalBytes rejects writes that would push the sum of stored
	// value sizes past this with storage.ErrQuotaExceeded.
	MaxTotalBytes int64

	// TTL expires entries this long after their last write. Expired
	// entries vanish on access; the janitor reclaims their memory.
	TTL time.Duration

	// SweepInterval is how often the janitor scans for expired entries.
	// Only used when TTL > 0. Defaults to one minute.
	SweepInterval time.Duration
}

// Store is an in-memory Backend with optional LRU eviction, byte budgets,
// and TTL expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently written, back = oldest
	total   int64      // sum of stored value sizes
	opts    Options
	closed  bool

	stopJanitor chan struct{}
}

// Ensure Store implements prefs.Backend at compile time.
var _ prefs.Backend = (*Store)(nil)

// New creates an in-memory store bounded by opts.
func New(opts Options) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		opts:    opts,
	}
	if opts.TTL > 0 {
		interval := opts.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		s.stopJanitor = make(chan struct{})
		go s.janitor(interval)
	}
	return s
}

// Get returns the value stored under key. Expired entries count as absent
// even before the janitor reclaims them.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrUnavailable
	}
	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, storage.ErrNotFound
	}
	return e.value, nil
}

// Set stores value under key, overwriting any previous value. Overwrites
// count against the total budget as a size delta, so rewriting a value
// never fails on a full store unless it grew.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrUnavailable
	}
	if s.opts.MaxValueBytes > 0 && len(value) > s.opts.MaxValueBytes {
		return fmt.Errorf("%w: value is %d bytes, budget is %d",
			storage.ErrQuotaExceeded, len(value), s.opts.MaxValueBytes)
	}

	var prev int64
	if e, ok := s.entries[key]; ok {
		prev = int64(len(e.value))
	}
	if s.opts.MaxTotalBytes > 0 && s.total-prev+int64(len(value)) > s.opts.MaxTotalBytes {
		return fmt.Errorf("%w: store holds %d bytes, budget is %d",
			storage.ErrQuotaExceeded, s.total, s.opts.MaxTotalBytes)
	}

	// Copy so callers cannot mutate stored bytes afterwards.
	stored := make([]byte, len(value))
	copy(stored, value)

	var expires time.Time
	if s.opts.TTL > 0 {
		expires = time.Now().Add(s.opts.TTL)
	}

	if e, ok := s.entries[key]; ok {
		s.total += int64(len(stored)) - prev
		e.value = stored
		e.expiresAt = expires
		s.lruList.MoveToFront(e.lruElem)
		return nil
	}

	// Evict if at capacity.
	if s.opts.MaxEntries > 0 && len(s.entries) >= s.opts.MaxEntries {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(key)
	s.entries[key] = &entry{value: stored, expiresAt: expires, lruElem: elem}
	s.total += int64(len(stored))
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is
// not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrUnavailable
	}
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	s.lruList.Remove(e.lruElem)
	s.total -= int64(len(e.value))
	delete(s.entries, key)
	return nil
}

// Keys returns every live key that starts with prefix, in map order.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrUnavailable
	}
	now := time.Now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expired(now) {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// HealthCheck reports whether the store is usable.
func (s *Store) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.ErrUnavailable
	}
	return nil
}

// Close stops the janitor and marks the store unavailable. Closing twice
// is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.stopJanitor != nil {
		close(s.stopJanitor)
	}
	return nil
}

// janitor periodically reclaims expired entries.
func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep removes entries that expired before now.
func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.expired(now) {
			s.lruList.Remove(e.lruElem)
			s.total -= int64(len(e.value))
			delete(s.entries, key)
		}
	}
}

// evictOldest removes the least recently written entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	key := back.Value.(string)
	e := s.entries[key]
	s.lruList.Remove(back)
	s.total -= int64(len(e.value))
	delete(s.entries, key)
}
