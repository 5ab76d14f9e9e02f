package memcache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ringcache/lib/cache"
)

var logger = logrus.WithField("component", "memcache")

// DefaultReapInterval is the pause between background sweeps for expired
// entries.
const DefaultReapInterval = 60 * time.Second

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the store during initialization.
type Options struct {
	// ReapInterval is the time between background sweeps (0 = default).
	ReapInterval time.Duration

	// Clock supplies the current time (nil = time.Now). Injected by tests
	// to make expiry deterministic.
	Clock func() time.Time
}

// DefaultOptions returns the default store options.
func DefaultOptions() *Options {
	return &Options{
		ReapInterval: DefaultReapInterval,
		Clock:        time.Now,
	}
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// entry is one stored key-value pair. A zero expiresAt means the entry never
// expires.
type entry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at the given time.
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// storeImpl is the in-memory cache engine.
//
// Thread-safety: a single mutex guards the full duration of every public
// operation, so mutations never interleave and readers never observe a
// partial mutation. The background reaper takes the same mutex per sweep.
type storeImpl struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   func() time.Time

	stopReaper chan struct{}
	closeOnce  sync.Once
}

// New creates a new in-memory store and starts its background reaper.
func New(opts *Options) cache.ICache {
	if opts == nil {
		opts = DefaultOptions()
	}
	interval := opts.ReapInterval
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &storeImpl{
		entries:    make(map[string]entry),
		clock:      clock,
		stopReaper: make(chan struct{}),
	}
	go s.reapLoop(interval)
	return s
}

// --------------------------------------------------------------------------
// Interface Methods (docu see cache/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.clock()) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *storeImpl) Put(key string, value json.RawMessage, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.clock().Add(ttl)
	}
	// a re-put without ttl intentionally drops any earlier expiry
	s.entries[key] = e
}

func (s *storeImpl) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	// an expired leftover is logically absent, same as for Get
	return !e.expired(s.clock())
}

func (s *storeImpl) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

func (s *storeImpl) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *storeImpl) Stats() cache.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	stats := cache.Stats{TotalKeys: len(s.entries)}
	for key, e := range s.entries {
		if !e.expiresAt.IsZero() {
			stats.KeysWithTTL++
			if e.expired(now) {
				stats.ExpiredKeys++
			}
		}
		stats.MemoryEstimate += len(key) + len(e.value)
	}
	return stats
}

func (s *storeImpl) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopReaper)
	})
	return nil
}

// --------------------------------------------------------------------------
// Background reaper
// --------------------------------------------------------------------------

// reapLoop periodically removes expired entries until Close is called. Each
// sweep runs under the store mutex, so it can never race with foreground
// operations. A failing sweep is logged and must not end the loop.
func (s *storeImpl) reapLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopReaper:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one reap iteration, recovering from any panic so that a single
// failed iteration never halts future sweeps.
func (s *storeImpl) sweep() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("reaper sweep failed: %v", r)
		}
	}()

	if n := s.reap(); n > 0 {
		logger.Debugf("reaper removed %d expired entries", n)
	}
}

// reap removes every expired entry and returns how many were dropped.
func (s *storeImpl) reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
