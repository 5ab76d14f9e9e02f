// Package ratelimit implements a per-client sliding-window admission gate.
// The node HTTP server mounts it as optional middleware; it is unrelated to
// key placement and storage and exists to keep a misbehaving client from
// monopolizing one node.
package ratelimit
