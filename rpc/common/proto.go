package common

import (
	"encoding/json"

	"ringcache/lib/cache"
)

// --------------------------------------------------------------------------
// Wire Structures
// --------------------------------------------------------------------------

// All bodies on the node API are UTF-8 JSON. Values are carried as
// json.RawMessage end to end so that whatever document a client stored is
// returned byte-identical.

// PutRequest is the body of POST /cache/{key}.
type PutRequest struct {
	// Value is the JSON document to store. Required.
	Value json.RawMessage `json:"value"`
	// TTL is the time to live in seconds. Omitted or null means the entry
	// never expires (and clears any expiry a previous write set).
	TTL *int64 `json:"ttl,omitempty"`
}

// PutResponse is the 200 body of POST /cache/{key}.
type PutResponse struct {
	Message string          `json:"message"`
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value"`
	TTL     *int64          `json:"ttl,omitempty"`
}

// GetResponse is the 200 body of GET /cache/{key}.
type GetResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// DeleteResponse is the 200 body of DELETE /cache/{key}.
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse is the body of GET /stats: the storage snapshot plus the
// node's identity.
type StatsResponse struct {
	cache.Stats
	NodeID string `json:"node_id"`
	Port   int    `json:"port"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	NodeID        string  `json:"node_id"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
