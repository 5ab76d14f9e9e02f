// Package testing provides a reusable conformance suite for cache.ICache
// implementations. An engine package runs the whole suite against its own
// factory in a single test function, so every implementation is held to the
// same semantics: expiry behavior, delete reporting, statistics, and
// correctness under concurrent writers.
package testing
