package cache

import (
	"encoding/json"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory is a function type that creates a new cache instance. It abstracts
// the concrete engine from the components that own one (the node server and
// the shared test suite).
type Factory func() ICache

// ICache is the interface for one node's expiring key-value storage.
//
// Absence is an ordinary outcome, never an error: read operations report it
// through their boolean return. An entry whose expiry has passed is logically
// absent even while still physically stored, and every operation must treat
// it that way.
type ICache interface {
	// Get returns the value for a key. The boolean is false if the key is
	// absent or expired; observing an expired entry also removes it.
	Get(key string) (value json.RawMessage, loaded bool)

	// Put inserts or overwrites a key-value pair. A positive ttl sets the
	// absolute expiry to now+ttl; ttl <= 0 stores the entry without expiry,
	// clearing any expiry a previous write may have set.
	Put(key string, value json.RawMessage, ttl time.Duration)

	// Delete removes a key-value pair, reporting whether the key was
	// logically present. A key that only exists as an expired leftover
	// reports false, exactly like Get reports absence for it.
	Delete(key string) bool

	// Clear removes all entries.
	Clear()

	// Size returns the number of physically stored entries. The count may
	// include expired entries the reaper has not collected yet.
	Size() int

	// Stats returns a point-in-time snapshot of storage statistics.
	Stats() Stats

	// Close stops background work. The cache must not be used afterwards.
	Close() error
}

// --------------------------------------------------------------------------
// Statistics
// --------------------------------------------------------------------------

// Stats is a snapshot of one node's storage state. MemoryEstimate is a
// heuristic (key and value byte lengths), not an exact accounting.
type Stats struct {
	TotalKeys      int `json:"total_keys"`
	KeysWithTTL    int `json:"keys_with_ttl"`
	ExpiredKeys    int `json:"expired_keys"`
	MemoryEstimate int `json:"memory_usage_estimate"`
}
