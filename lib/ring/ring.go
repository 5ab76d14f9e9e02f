package ring

import (
	"fmt"
	"sort"
)

// DefaultReplicas is the number of virtual nodes created per physical node.
// Higher values give a more even key distribution at the cost of a larger
// lookup table: build cost is O(R * members * log), lookup stays logarithmic.
const DefaultReplicas = 150

// --------------------------------------------------------------------------
// Ring Structure
// --------------------------------------------------------------------------

// virtualNode is one of the R ring positions owned by a physical node.
type virtualNode struct {
	pos Position
	id  string
}

// Ring is a consistent hash ring with virtual nodes.
//
// Invariant: every member owns exactly R positions in the table, and every
// table entry belongs to a current member. Membership changes only through
// AddNode and RemoveNode.
//
// Thread-safety: the Ring is not safe for concurrent use. Share it through
// immutable snapshots (Clone) or external synchronization.
type Ring struct {
	replicas int
	vnodes   []virtualNode // sorted by position, ties broken by id
	members  map[string]struct{}
}

// New creates an empty ring with the given virtual-node count per member.
// A non-positive replicas falls back to DefaultReplicas.
func New(replicas int, nodes ...string) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	r := &Ring{
		replicas: replicas,
		members:  make(map[string]struct{}),
	}
	for _, id := range nodes {
		r.AddNode(id)
	}
	return r
}

// Replicas returns the virtual-node count per member.
func (r *Ring) Replicas() int {
	return r.replicas
}

// Len returns the number of physical members.
func (r *Ring) Len() int {
	return len(r.members)
}

// Members returns the physical node ids in lexical order.
func (r *Ring) Members() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id is a current member.
func (r *Ring) Has(id string) bool {
	_, ok := r.members[id]
	return ok
}

// --------------------------------------------------------------------------
// Membership
// --------------------------------------------------------------------------

// AddNode inserts a physical node and its R virtual positions into the ring.
// Adding an existing member is a no-op.
func (r *Ring) AddNode(id string) {
	if _, ok := r.members[id]; ok {
		return
	}
	r.members[id] = struct{}{}

	for i := 0; i < r.replicas; i++ {
		r.vnodes = append(r.vnodes, virtualNode{
			pos: PositionOf(virtualKey(id, i)),
			id:  id,
		})
	}
	r.sortVnodes()
}

// RemoveNode deletes a physical node and all of its virtual positions.
// Removing an unknown id is a no-op.
func (r *Ring) RemoveNode(id string) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)

	kept := r.vnodes[:0]
	for _, vn := range r.vnodes {
		if vn.id != id {
			kept = append(kept, vn)
		}
	}
	r.vnodes = kept
}

// virtualKey derives the hash input for one virtual node.
func virtualKey(id string, replica int) string {
	return fmt.Sprintf("%s:%d", id, replica)
}

// sortVnodes restores the table order after an insert. Ids break position
// ties so that rebuilding a ring from the same membership always yields the
// identical table.
func (r *Ring) sortVnodes() {
	sort.Slice(r.vnodes, func(i, j int) bool {
		if c := r.vnodes[i].pos.Cmp(r.vnodes[j].pos); c != 0 {
			return c < 0
		}
		return r.vnodes[i].id < r.vnodes[j].id
	})
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// NodeFor returns the physical node owning the key: the first virtual node
// at or after the key's position, wrapping to the smallest position at the
// top of the space. The boolean is false for an empty ring.
func (r *Ring) NodeFor(key string) (string, bool) {
	if len(r.vnodes) == 0 {
		return "", false
	}
	idx := r.search(PositionOf(key))
	return r.vnodes[idx].id, true
}

// NodesFor walks clockwise from the key's position and collects the first
// count distinct physical nodes, in ring order. If the ring has fewer than
// count members, every member appears exactly once. count <= 0 yields nil.
func (r *Ring) NodesFor(key string, count int) []string {
	if len(r.vnodes) == 0 || count <= 0 {
		return nil
	}

	start := r.search(PositionOf(key))
	seen := make(map[string]struct{}, count)
	var ids []string

	for i := 0; i < len(r.vnodes); i++ {
		vn := r.vnodes[(start+i)%len(r.vnodes)]
		if _, dup := seen[vn.id]; dup {
			continue
		}
		seen[vn.id] = struct{}{}
		ids = append(ids, vn.id)
		if len(ids) == count {
			break
		}
	}
	return ids
}

// search returns the index of the first virtual node whose position is >= p,
// wrapping to 0 when p is beyond the largest position. The ">=" tie rule is
// deliberate: a key hashing exactly onto a virtual node is owned by it.
func (r *Ring) search(p Position) int {
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return !r.vnodes[i].pos.Less(p)
	})
	if idx == len(r.vnodes) {
		idx = 0
	}
	return idx
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// LoadDistribution returns the fraction of the hash space owned by each
// member. A virtual node owns the arc from its predecessor (wrapping for the
// first entry) up to itself; the per-node sums add up to ~1.0.
func (r *Ring) LoadDistribution() map[string]float64 {
	if len(r.vnodes) == 0 {
		return map[string]float64{}
	}

	dist := make(map[string]float64, len(r.members))
	if len(r.vnodes) == 1 {
		// a single virtual node owns the full circle, which the wrapping
		// subtraction below would report as zero
		dist[r.vnodes[0].id] = 1.0
		return dist
	}

	prev := r.vnodes[len(r.vnodes)-1].pos
	for _, vn := range r.vnodes {
		dist[vn.id] += vn.pos.Dist(prev).Fraction()
		prev = vn.pos
	}
	return dist
}

// Clone returns a deep copy of the ring. Mutating the copy never affects the
// original, which is what makes atomic snapshot replacement possible for
// concurrent readers.
func (r *Ring) Clone() *Ring {
	c := &Ring{
		replicas: r.replicas,
		vnodes:   append([]virtualNode(nil), r.vnodes...),
		members:  make(map[string]struct{}, len(r.members)),
	}
	for id := range r.members {
		c.members[id] = struct{}{}
	}
	return c
}

// String summarizes membership and load shares, mainly for CLI output.
func (r *Ring) String() string {
	if len(r.members) == 0 {
		return "empty hash ring"
	}
	dist := r.LoadDistribution()
	s := fmt.Sprintf("hash ring with %d nodes:", len(r.members))
	for _, id := range r.Members() {
		s += fmt.Sprintf("\n  %s: %.2f%% of hash space", id, dist[id]*100)
	}
	return s
}
