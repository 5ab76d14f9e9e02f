// Package rpc contains the wire layer of the distributed cache: the HTTP
// JSON contract between the routing client and the cache nodes.
//
// The package is organized into several subpackages:
//
//   - common: wire structures of the node API, server and client
//     configuration structs, and the named-logger factory.
//
//   - server: the node side - a chi HTTP server exposing one storage engine
//     per node, plus a Cluster helper hosting several nodes in one process.
//
//   - client: the routing client - consistent-hash placement, best-effort
//     replication, first-success replicated reads, and cluster-wide stats
//     and health fan-outs.
package rpc
