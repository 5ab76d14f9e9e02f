package ring

import (
	"fmt"
	"math"
	"testing"
)

func sampleKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	return keys
}

func TestEmptyRing(t *testing.T) {
	r := New(DefaultReplicas)

	if _, ok := r.NodeFor("anything"); ok {
		t.Errorf("NodeFor on empty ring should report no owner")
	}
	if ids := r.NodesFor("anything", 3); len(ids) != 0 {
		t.Errorf("NodesFor on empty ring should be empty, got %v", ids)
	}
	if dist := r.LoadDistribution(); len(dist) != 0 {
		t.Errorf("LoadDistribution on empty ring should be empty, got %v", dist)
	}
}

func TestAddRemoveIdempotent(t *testing.T) {
	r := New(DefaultReplicas)

	r.AddNode("a")
	r.AddNode("a")
	if len(r.vnodes) != DefaultReplicas {
		t.Errorf("expected %d virtual nodes after duplicate add, got %d", DefaultReplicas, len(r.vnodes))
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 member, got %d", r.Len())
	}

	r.AddNode("b")
	if len(r.vnodes) != 2*DefaultReplicas {
		t.Errorf("expected %d virtual nodes, got %d", 2*DefaultReplicas, len(r.vnodes))
	}

	r.RemoveNode("a")
	r.RemoveNode("a")
	r.RemoveNode("never-added")
	if r.Len() != 1 || len(r.vnodes) != DefaultReplicas {
		t.Errorf("expected only b's %d positions left, got %d members / %d positions",
			DefaultReplicas, r.Len(), len(r.vnodes))
	}
	for _, vn := range r.vnodes {
		if vn.id != "b" {
			t.Fatalf("orphan position for removed node %q", vn.id)
		}
	}
}

func TestNodeForDeterministic(t *testing.T) {
	r := New(DefaultReplicas, "a", "b", "c")

	for _, key := range sampleKeys(200) {
		first, ok := r.NodeFor(key)
		if !ok {
			t.Fatalf("NodeFor(%q) found no owner on a populated ring", key)
		}
		for i := 0; i < 5; i++ {
			if again, _ := r.NodeFor(key); again != first {
				t.Fatalf("NodeFor(%q) not stable: %q then %q", key, first, again)
			}
		}
	}

	// an independently built ring with the same membership agrees
	other := New(DefaultReplicas, "c", "a", "b")
	for _, key := range sampleKeys(200) {
		want, _ := r.NodeFor(key)
		got, _ := other.NodeFor(key)
		if got != want {
			t.Fatalf("rings with identical membership disagree on %q: %q vs %q", key, want, got)
		}
	}
}

func TestNodesForDistinct(t *testing.T) {
	r := New(DefaultReplicas, "a", "b", "c")

	for _, count := range []int{-1, 0, 1, 2, 3, 4, 10} {
		for _, key := range sampleKeys(50) {
			ids := r.NodesFor(key, count)

			want := count
			if want < 0 {
				want = 0
			}
			if want > r.Len() {
				want = r.Len()
			}
			if len(ids) != want {
				t.Fatalf("NodesFor(%q, %d) returned %d ids, want %d", key, count, len(ids), want)
			}

			seen := map[string]bool{}
			for _, id := range ids {
				if seen[id] {
					t.Fatalf("NodesFor(%q, %d) returned duplicate id %q", key, count, id)
				}
				seen[id] = true
			}
		}
	}
}

func TestNodesForStartsAtPrimary(t *testing.T) {
	r := New(DefaultReplicas, "a", "b", "c")

	for _, key := range sampleKeys(100) {
		primary, _ := r.NodeFor(key)
		ids := r.NodesFor(key, 3)
		if len(ids) == 0 || ids[0] != primary {
			t.Fatalf("NodesFor(%q, 3) = %v, first entry should be primary %q", key, ids, primary)
		}
	}
}

func TestLoadDistribution(t *testing.T) {
	r := New(DefaultReplicas, "a", "b", "c")

	dist := r.LoadDistribution()
	if len(dist) != 3 {
		t.Fatalf("expected 3 entries, got %v", dist)
	}

	var total float64
	for id, frac := range dist {
		total += frac
		// with R=150 each of three equal nodes should own a roughly fair share
		if frac <= 0.25 || frac >= 0.40 {
			t.Errorf("node %s owns %.4f of the space, expected (0.25, 0.40)", id, frac)
		}
	}
	if math.Abs(total-1.0) > 0.001 {
		t.Errorf("load fractions sum to %.6f, expected 1.0 +- 0.001", total)
	}
}

func TestLoadDistributionSingleNode(t *testing.T) {
	r := New(DefaultReplicas, "only")
	dist := r.LoadDistribution()
	if math.Abs(dist["only"]-1.0) > 1e-9 {
		t.Errorf("single member should own the full ring, got %v", dist)
	}
}

func TestRebalanceOnAdd(t *testing.T) {
	const keyCount = 10_000
	keys := sampleKeys(keyCount)

	r := New(DefaultReplicas, "a", "b", "c")
	before := make(map[string]string, keyCount)
	for _, key := range keys {
		before[key], _ = r.NodeFor(key)
	}

	r.AddNode("d")

	moved := 0
	for _, key := range keys {
		after, _ := r.NodeFor(key)
		if after != before[key] {
			moved++
			// keys may only move TO the new node, never between old ones
			if after != "d" {
				t.Fatalf("key %q moved from %q to old node %q", key, before[key], after)
			}
		}
	}

	frac := float64(moved) / keyCount
	want := 1.0 / 4.0
	if math.Abs(frac-want) > 0.15 {
		t.Errorf("adding one node to 3 moved %.1f%% of keys, expected about %.1f%% (+-15)",
			frac*100, want*100)
	}
}

func TestExactPositionTieRule(t *testing.T) {
	r := New(DefaultReplicas, "a", "b", "c")

	// a key hashing exactly onto a virtual node belongs to that node
	for i := 0; i < 10; i++ {
		key := virtualKey("a", i)
		idx := r.search(PositionOf(key))
		if r.vnodes[idx].pos.Cmp(PositionOf(key)) != 0 {
			t.Fatalf("search(%q) should land on the exact position", key)
		}
		owner, _ := r.NodeFor(key)
		if owner != r.vnodes[idx].id {
			t.Fatalf("NodeFor(%q) = %q, want the node at the exact position %q", key, owner, r.vnodes[idx].id)
		}
	}
}

func TestClone(t *testing.T) {
	r := New(DefaultReplicas, "a", "b")
	c := r.Clone()

	c.AddNode("c")
	c.RemoveNode("a")

	if r.Len() != 2 || !r.Has("a") || r.Has("c") {
		t.Errorf("mutating the clone changed the original: members %v", r.Members())
	}
	if c.Len() != 2 || c.Has("a") || !c.Has("c") {
		t.Errorf("clone has wrong membership: %v", c.Members())
	}
	if len(r.vnodes) != 2*DefaultReplicas {
		t.Errorf("original vnode table changed, got %d entries", len(r.vnodes))
	}
}

func TestPositionArithmetic(t *testing.T) {
	a := Position{hi: 0, lo: 5}
	b := Position{hi: 0, lo: 3}

	if d := a.Dist(b); d.hi != 0 || d.lo != 2 {
		t.Errorf("Dist(5,3) = %v, want 2", d)
	}
	// wrapping across the hi/lo boundary
	c := Position{hi: 1, lo: 0}
	if d := c.Dist(a); d.hi != 0 || d.lo != math.MaxUint64-4 {
		t.Errorf("borrow not applied: %v", d)
	}
	// wrapping around the top of the space
	if d := b.Dist(a); d.hi != math.MaxUint64 || d.lo != math.MaxUint64-1 {
		t.Errorf("Dist(3,5) should wrap modulo 2^128, got %v", d)
	}

	if !b.Less(a) || a.Less(b) {
		t.Errorf("ordering broken for %v and %v", a, b)
	}
}

func TestNewLoadStats(t *testing.T) {
	stats := NewLoadStats(map[string]float64{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25})
	if stats.StdDeviation != 0 {
		t.Errorf("uniform distribution should have zero deviation, got %f", stats.StdDeviation)
	}
	if stats.BalanceQuality != 1.0 {
		t.Errorf("uniform distribution should score 1.0, got %f", stats.BalanceQuality)
	}

	skewed := NewLoadStats(map[string]float64{"a": 0.9, "b": 0.1})
	if skewed.BalanceQuality >= stats.BalanceQuality {
		t.Errorf("skewed ring should score below uniform: %f vs %f",
			skewed.BalanceQuality, stats.BalanceQuality)
	}
	if skewed.Min != 0.1 || skewed.Max != 0.9 {
		t.Errorf("min/max wrong: %+v", skewed)
	}
}
