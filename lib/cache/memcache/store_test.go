package memcache

import (
	"encoding/json"
	"testing"
	"time"

	"ringcache/lib/cache"
	cachetesting "ringcache/lib/cache/testing"
)

func Test(t *testing.T) {
	cachetesting.RunCacheTests(t, "Memcache", func() cache.ICache {
		return New(nil)
	})
}

// --------------------------------------------------------------------------
// White-box tests with an injected clock
// --------------------------------------------------------------------------

// fakeClock lets tests move time by hand.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func newClockedStore(c *fakeClock) *storeImpl {
	return New(&Options{ReapInterval: time.Hour, Clock: c.Now}).(*storeImpl)
}

func TestExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	s := newClockedStore(clock)
	defer s.Close()

	s.Put("key", json.RawMessage(`1`), 10*time.Second)

	// at exactly now+ttl the entry is still present: only strictly after
	// the deadline is it logically absent
	clock.Advance(10 * time.Second)
	if _, loaded := s.Get("key"); !loaded {
		t.Errorf("entry should still be present exactly at its expiry instant")
	}

	clock.Advance(time.Nanosecond)
	if _, loaded := s.Get("key"); loaded {
		t.Errorf("entry should be absent strictly after its expiry instant")
	}

	// the lazy reap on Get removed it physically too
	if size := s.Size(); size != 0 {
		t.Errorf("expected lazy reap on Get, size is %d", size)
	}
}

func TestStatsCountsExpired(t *testing.T) {
	clock := newFakeClock()
	s := newClockedStore(clock)
	defer s.Close()

	s.Put("live", json.RawMessage(`1`), time.Hour)
	s.Put("dead", json.RawMessage(`2`), time.Second)
	s.Put("plain", json.RawMessage(`3`), 0)

	clock.Advance(time.Minute)

	stats := s.Stats()
	if stats.TotalKeys != 3 {
		t.Errorf("stats must count physically present entries, got %d", stats.TotalKeys)
	}
	if stats.KeysWithTTL != 2 {
		t.Errorf("expected 2 keys with ttl, got %d", stats.KeysWithTTL)
	}
	if stats.ExpiredKeys != 1 {
		t.Errorf("expected 1 expired key, got %d", stats.ExpiredKeys)
	}

	// size too includes the not-yet-reaped expired entry
	if size := s.Size(); size != 3 {
		t.Errorf("Size should include unreaped entries, got %d", size)
	}
}

func TestReapRemovesAllExpired(t *testing.T) {
	clock := newFakeClock()
	s := newClockedStore(clock)
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Put(key(i), json.RawMessage(`0`), time.Duration(i+1)*time.Second)
	}
	s.Put("forever", json.RawMessage(`1`), 0)

	clock.Advance(5 * time.Second)
	if removed := s.reap(); removed != 4 {
		// entries with ttl 1..4s are strictly past, the 5s one is exactly
		// at its deadline and still live
		t.Errorf("expected reap to remove 4 entries, removed %d", removed)
	}
	if size := s.Size(); size != 7 {
		t.Errorf("expected 7 entries left, got %d", size)
	}

	clock.Advance(time.Hour)
	s.reap()
	if size := s.Size(); size != 1 {
		t.Errorf("only the unexpiring entry should remain, got %d", size)
	}
}

func TestSweepSurvivesPanic(t *testing.T) {
	calls := 0
	clock := newFakeClock()
	s := New(&Options{
		ReapInterval: time.Hour,
		Clock: func() time.Time {
			calls++
			if calls == 1 {
				panic("clock backend unavailable")
			}
			return clock.now
		},
	}).(*storeImpl)
	defer s.Close()

	// first sweep panics inside the lock, must be recovered without
	// poisoning the store
	s.sweep()
	s.sweep()

	s.Put("key", json.RawMessage(`1`), 0)
	if _, loaded := s.Get("key"); !loaded {
		t.Errorf("store unusable after a recovered sweep panic")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := New(nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func key(i int) string {
	return "key-" + string(rune('a'+i))
}
