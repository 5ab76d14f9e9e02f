package ratelimit

import (
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Limiter
// --------------------------------------------------------------------------

// Limiter is a sliding-window admission gate: each client may perform at
// most maxRequests requests within any trailing window.
//
// Thread-safety: all methods are safe for concurrent use.
type Limiter struct {
	maxRequests int
	window      time.Duration
	clock       func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time // client id -> timestamps inside the window
}

// New creates a limiter allowing maxRequests per client within window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		clock:       time.Now,
		requests:    make(map[string][]time.Time),
	}
}

// Allow reports whether the client may perform another request now, and
// records the request if so.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	cutoff := now.Add(-l.window)

	// drop timestamps that slid out of the window
	kept := l.requests[clientID][:0]
	for _, ts := range l.requests[clientID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.maxRequests {
		l.requests[clientID] = kept
		return false
	}

	l.requests[clientID] = append(kept, now)
	return true
}
