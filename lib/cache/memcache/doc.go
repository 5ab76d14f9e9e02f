// Package memcache implements the cache.ICache interface with a plain
// in-memory map guarded by a single mutex.
//
// One mutual-exclusion domain per store covers the full duration of every
// public operation, including the statistics snapshot and every background
// sweep. That keeps the engine trivially race-free at the cost of
// parallelism within one node, which is the right trade for a demonstration
// system: cross-node behavior comes from client-side routing, not from
// intra-node concurrency.
//
// Expired entries are reclaimed two ways: lazily, when a Get or Delete
// observes a past expiry, and eagerly, by a ticker-driven reaper goroutine
// (default every 60s) that is stopped by Close. A panicking sweep is caught
// and logged; later sweeps still run.
package memcache
