// Package ring implements the consistent hash ring used to place cache keys
// on physical nodes. It is the placement core of the system: every routing
// decision made by the rpc/client package is a lookup against this ring.
//
// The package focuses on:
//   - Deterministic key placement in a fixed 128-bit hash space
//   - Virtual nodes (replicas) to smooth out per-node hash variance
//   - Cheap membership changes that relocate only a small key fraction
//   - Load-distribution introspection for monitoring and tooling
//
// Key Components:
//
//   - Position: a point in the 128-bit ring coordinate space. Positions are
//     totally ordered and wrap modulo 2^128. They are derived from the MD5
//     digest of a key, which gives a deterministic, fixed-width value with
//     good avalanche behavior (cryptographic strength is not needed here).
//
//   - Ring: the sorted virtual-node table plus the physical membership set.
//     Each member owns exactly R virtual positions computed from "id:i" for
//     i in [0,R). Lookups walk clockwise from the key's position to the first
//     virtual node at or after it, wrapping at the top of the space.
//
// The Ring is a pure in-memory data structure with no I/O and no internal
// locking. Owners that share a Ring across goroutines must either serialize
// access or work on immutable snapshots via Clone (the approach taken by the
// rpc/client package).
package ring
