// Package server implements the node side of the wire contract: an HTTP
// JSON API exposing one cache.ICache per node.
//
// Endpoints per node:
//
//	GET    /cache/{key}  retrieve a value       200 | 404
//	POST   /cache/{key}  store a value          200 | 400 | 500
//	DELETE /cache/{key}  delete a value         200 | 404
//	GET    /stats        storage statistics     200
//	GET    /health       liveness check         200
//	GET    /metrics      Prometheus metrics     200
//
// Faults stay request-scoped: malformed bodies answer 400, a panicking
// handler answers 500, and neither terminates the node. The optional
// admission gate answers 429 when a client exceeds its sliding window.
//
// A Cluster hosts several independent nodes in one process for demos and
// tests; nothing is shared between them except the process, matching the
// model where all cross-node behavior lives in the routing client.
package server
