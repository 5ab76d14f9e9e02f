package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"ringcache/lib/cache"
)

// RunCacheTests runs the full conformance suite for an ICache implementation.
func RunCacheTests(t *testing.T, name string, factory cache.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory())
		})

		t.Run("TTL", func(t *testing.T) {
			testTTL(t, factory())
		})

		t.Run("TTLClearedOnRePut", func(t *testing.T) {
			testTTLClearedOnRePut(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Clear&Size", func(t *testing.T) {
			testClearSize(t, factory())
		})

		t.Run("Stats", func(t *testing.T) {
			testStats(t, factory())
		})

		t.Run("ValueRoundTrip", func(t *testing.T) {
			testValueRoundTrip(t, factory())
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, c cache.ICache) {
	defer c.Close()

	key := "test-key"
	value1 := json.RawMessage(`"value-1"`)
	value2 := json.RawMessage(`"value-2"`)

	c.Put(key, value1, 0)

	got, loaded := c.Get(key)
	if !loaded {
		t.Fatalf("expected key %q to exist after Put", key)
	}
	if !bytes.Equal(got, value1) {
		t.Errorf("expected value %s, got %s", value1, got)
	}

	c.Put(key, value2, 0)
	got, loaded = c.Get(key)
	if !loaded || !bytes.Equal(got, value2) {
		t.Errorf("re-put should overwrite: expected %s, got %s (loaded=%t)", value2, got, loaded)
	}

	if _, loaded := c.Get("nonexistent-key"); loaded {
		t.Errorf("expected missing key to report loaded=false")
	}
}

func testTTL(t *testing.T, c cache.ICache) {
	defer c.Close()

	c.Put("expiring", json.RawMessage(`42`), 50*time.Millisecond)
	c.Put("durable", json.RawMessage(`"stays"`), 0)

	if _, loaded := c.Get("expiring"); !loaded {
		t.Fatalf("entry should be present before its ttl elapses")
	}

	time.Sleep(80 * time.Millisecond)

	if _, loaded := c.Get("expiring"); loaded {
		t.Errorf("entry should be absent after its ttl elapsed")
	}
	if _, loaded := c.Get("durable"); !loaded {
		t.Errorf("entry without ttl should survive")
	}
}

func testTTLClearedOnRePut(t *testing.T, c cache.ICache) {
	defer c.Close()

	c.Put("key", json.RawMessage(`1`), 50*time.Millisecond)
	// the second write carries no ttl, so the earlier expiry must be dropped
	c.Put("key", json.RawMessage(`2`), 0)

	time.Sleep(80 * time.Millisecond)

	got, loaded := c.Get("key")
	if !loaded {
		t.Fatalf("re-put without ttl should have cleared the expiry")
	}
	if !bytes.Equal(got, json.RawMessage(`2`)) {
		t.Errorf("expected value 2, got %s", got)
	}
}

func testDelete(t *testing.T, c cache.ICache) {
	defer c.Close()

	c.Put("key", json.RawMessage(`true`), 0)

	if !c.Delete("key") {
		t.Errorf("deleting a present key should report true")
	}
	if c.Delete("key") {
		t.Errorf("second delete on the same key should report false")
	}
	if _, loaded := c.Get("key"); loaded {
		t.Errorf("deleted key should be absent")
	}

	// a key that only exists as an expired leftover reports false
	c.Put("expired", json.RawMessage(`0`), 30*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if c.Delete("expired") {
		t.Errorf("deleting a logically expired key should report false")
	}
}

func testClearSize(t *testing.T, c cache.ICache) {
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("key-%d", i), json.RawMessage(`"v"`), 0)
	}
	if size := c.Size(); size != 10 {
		t.Errorf("expected size 10, got %d", size)
	}

	c.Clear()
	if size := c.Size(); size != 0 {
		t.Errorf("expected size 0 after Clear, got %d", size)
	}
	if _, loaded := c.Get("key-0"); loaded {
		t.Errorf("entries should be gone after Clear")
	}
}

func testStats(t *testing.T, c cache.ICache) {
	defer c.Close()

	c.Put("plain", json.RawMessage(`"plain"`), 0)
	c.Put("with-ttl", json.RawMessage(`"ttl"`), time.Hour)

	stats := c.Stats()
	if stats.TotalKeys != 2 {
		t.Errorf("expected 2 total keys, got %d", stats.TotalKeys)
	}
	if stats.KeysWithTTL != 1 {
		t.Errorf("expected 1 key with ttl, got %d", stats.KeysWithTTL)
	}
	if stats.ExpiredKeys != 0 {
		t.Errorf("expected no expired keys, got %d", stats.ExpiredKeys)
	}
	if stats.MemoryEstimate <= 0 {
		t.Errorf("expected a positive memory estimate, got %d", stats.MemoryEstimate)
	}
}

func testValueRoundTrip(t *testing.T, c cache.ICache) {
	defer c.Close()

	// values of every JSON kind must come back byte-exact, including
	// object key order
	values := []json.RawMessage{
		json.RawMessage(`"a string"`),
		json.RawMessage(`42`),
		json.RawMessage(`3.14`),
		json.RawMessage(`true`),
		json.RawMessage(`null`),
		json.RawMessage(`["a",1,false,null]`),
		json.RawMessage(`{"z":1,"a":{"nested":[2,3]}}`),
	}

	for i, value := range values {
		key := fmt.Sprintf("value-%d", i)
		c.Put(key, value, 0)
		got, loaded := c.Get(key)
		if !loaded {
			t.Fatalf("value %s did not survive storage", value)
		}
		if !bytes.Equal(got, value) {
			t.Errorf("value not round-tripped exactly: put %s, got %s", value, got)
		}
	}
}

func testConcurrentWriters(t *testing.T, c cache.ICache) {
	defer c.Close()

	const (
		writers       = 500
		keysPerWriter = 100
	)

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for k := 0; k < keysPerWriter; k++ {
				key := fmt.Sprintf("writer-%d-key-%d", w, k)
				c.Put(key, json.RawMessage(fmt.Sprintf(`%d`, w)), 0)
			}
		}(w)
	}
	wg.Wait()

	if size := c.Size(); size != writers*keysPerWriter {
		t.Errorf("expected exactly %d entries after concurrent writes, got %d",
			writers*keysPerWriter, size)
	}

	// spot-check that no write was lost or corrupted
	for w := 0; w < writers; w += 50 {
		key := fmt.Sprintf("writer-%d-key-0", w)
		got, loaded := c.Get(key)
		if !loaded {
			t.Fatalf("key %q lost during concurrent writes", key)
		}
		if !bytes.Equal(got, json.RawMessage(fmt.Sprintf(`%d`, w))) {
			t.Errorf("key %q corrupted: got %s", key, got)
		}
	}
}
