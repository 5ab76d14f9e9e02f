// Package client implements the routing client, the component that makes
// the cache distributed: it mirrors cluster membership on a consistent hash
// ring and sends every operation to the node(s) the ring selects.
//
// Consistency contract (deliberately weak):
//
//   - Put/Get/Delete talk to the key's single primary node.
//   - PutReplicated writes to N distinct nodes independently; partial
//     success is a valid outcome reported as an ack count.
//   - GetReplicated tries replica candidates in ring order and returns the
//     first present value. It is first-success-of-N, not a quorum read:
//     responses are never compared, reconciled or repaired.
//
// Every remote failure mode - connectivity error, timeout, non-2xx - is
// folded into "this node failed for this request" and reported as a false
// or absent result. There are no same-node retries, no backoff, and no
// automatic membership changes; membership edits are explicit operator
// actions through AddNode/RemoveNode. The one loud error is ErrNoNodes,
// raised when the ring has no members at all, because that is a usage
// mistake rather than an ordinary outcome.
package client
