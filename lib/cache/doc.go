// Package cache defines the storage interface implemented by every cache
// node, along with the statistics snapshot it reports.
//
// Values are stored as json.RawMessage: the node never re-encodes what a
// client sent, so any JSON document (string, number, boolean, null, array,
// object) round-trips byte-exact through storage and back over the wire.
//
// Key Components:
//
//   - ICache Interface: the operations one node's storage supports. Absence
//     and expiry are ordinary (value, loaded) outcomes rather than errors,
//     matching the system's contract that only configuration mistakes are
//     surfaced as faults.
//
//   - Stats: a point-in-time snapshot of key counts and an approximate
//     memory figure, served by the node's /stats endpoint.
//
//   - Factory: dependency injection for the concrete engine, used by the
//     node server and by the reusable conformance suite in cache/testing.
//
// The in-memory implementation lives in the memcache subpackage.
package cache
