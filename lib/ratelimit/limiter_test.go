package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("client") {
		t.Errorf("request beyond the limit should be rejected")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Fatalf("first request for a should pass")
	}
	if !l.Allow("b") {
		t.Errorf("b must not be throttled by a's usage")
	}
	if l.Allow("a") {
		t.Errorf("a should be throttled")
	}
}

func TestWindowSlides(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.clock = func() time.Time { return now }

	if !l.Allow("client") || !l.Allow("client") {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow("client") {
		t.Fatalf("third request inside the window should be rejected")
	}

	// once the old timestamps slide out, capacity frees up
	now = now.Add(61 * time.Second)
	if !l.Allow("client") {
		t.Errorf("request after the window slid should be allowed")
	}
}
