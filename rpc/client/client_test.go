package client

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"ringcache/lib/cache"
	"ringcache/lib/cache/memcache"
	"ringcache/rpc/common"
	"ringcache/rpc/server"
)

// testCluster is a set of real node servers plus direct handles on their
// storage engines, so tests can observe exactly where data landed.
type testCluster struct {
	stores  map[string]cache.ICache
	servers map[string]*httptest.Server
}

func newTestCluster(t *testing.T, ids ...string) (*testCluster, *RoutingClient) {
	t.Helper()
	tc := &testCluster{
		stores:  make(map[string]cache.ICache),
		servers: make(map[string]*httptest.Server),
	}
	nodes := make(map[string]string)
	for _, id := range ids {
		store := memcache.New(&memcache.Options{ReapInterval: time.Hour})
		srv := httptest.NewServer(server.NewNode(id, "127.0.0.1:0", store, nil).Handler())
		tc.stores[id] = store
		tc.servers[id] = srv
		nodes[id] = srv.URL
	}
	t.Cleanup(func() {
		for id := range tc.servers {
			tc.servers[id].Close()
			tc.stores[id].Close()
		}
	})

	c := New(common.ClientConfig{Nodes: nodes, TimeoutSecond: 2})
	return tc, c
}

func TestEmptyRingSurfacesLoudly(t *testing.T) {
	c := New(common.ClientConfig{})

	if _, err := c.Put("key", json.RawMessage(`1`), 0); err != ErrNoNodes {
		t.Errorf("Put on empty ring returned %v, want ErrNoNodes", err)
	}
	if _, _, err := c.Get("key"); err != ErrNoNodes {
		t.Errorf("Get on empty ring returned %v, want ErrNoNodes", err)
	}
	if _, err := c.Delete("key"); err != ErrNoNodes {
		t.Errorf("Delete on empty ring returned %v, want ErrNoNodes", err)
	}
	if _, err := c.PutReplicated("key", json.RawMessage(`1`), 3, 0); err != ErrNoNodes {
		t.Errorf("PutReplicated on empty ring returned %v, want ErrNoNodes", err)
	}
	if _, _, err := c.GetReplicated("key", 1); err != ErrNoNodes {
		t.Errorf("GetReplicated on empty ring returned %v, want ErrNoNodes", err)
	}
}

func TestSinglePrimaryEndToEnd(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")

	value := json.RawMessage(`"x"`)
	ok, err := c.Put("user:1", value, 0)
	if err != nil || !ok {
		t.Fatalf("Put failed: ok=%t err=%v", ok, err)
	}

	// only the ring's primary may hold the key
	primary, _ := c.Ring().NodeFor("user:1")
	for id, store := range tc.stores {
		_, loaded := store.Get("user:1")
		if id == primary && !loaded {
			t.Errorf("primary %q does not hold the key", id)
		}
		if id != primary && loaded {
			t.Errorf("non-primary %q holds the key", id)
		}
	}

	got, loaded, err := c.Get("user:1")
	if err != nil || !loaded {
		t.Fatalf("Get failed: loaded=%t err=%v", loaded, err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %s, want %s", got, value)
	}

	deleted, err := c.Delete("user:1")
	if err != nil || !deleted {
		t.Fatalf("Delete failed: deleted=%t err=%v", deleted, err)
	}
	if _, loaded, _ := c.Get("user:1"); loaded {
		t.Errorf("key still present after Delete")
	}
	if deleted, _ := c.Delete("user:1"); deleted {
		t.Errorf("second Delete reported true")
	}
}

func TestPutWithTTL(t *testing.T) {
	tc, c := newTestCluster(t, "a")

	if ok, _ := c.Put("transient", json.RawMessage(`1`), time.Hour); !ok {
		t.Fatalf("Put with ttl failed")
	}
	stats := tc.stores["a"].Stats()
	if stats.KeysWithTTL != 1 {
		t.Errorf("ttl not forwarded to the node: %+v", stats)
	}
}

func TestUnreachableNodeFoldsToFalse(t *testing.T) {
	tc, c := newTestCluster(t, "a")
	tc.servers["a"].Close()

	ok, err := c.Put("key", json.RawMessage(`1`), 0)
	if err != nil {
		t.Fatalf("unreachable node must not surface an error, got %v", err)
	}
	if ok {
		t.Errorf("Put against a dead node reported success")
	}

	_, loaded, err := c.Get("key")
	if err != nil || loaded {
		t.Errorf("Get against a dead node: loaded=%t err=%v", loaded, err)
	}
}

func TestPutReplicated(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")

	acks, err := c.PutReplicated("popular", json.RawMessage(`"data"`), 3, 0)
	if err != nil {
		t.Fatalf("PutReplicated failed: %v", err)
	}
	if acks != 3 {
		t.Errorf("expected 3 acks with all nodes reachable, got %d", acks)
	}
	for id, store := range tc.stores {
		if _, loaded := store.Get("popular"); !loaded {
			t.Errorf("replica %q did not store the value", id)
		}
	}

	// exactly one of the three replicas unreachable -> 2 acks
	replicas := c.Ring().NodesFor("popular", 3)
	tc.servers[replicas[1]].Close()

	acks, err = c.PutReplicated("popular", json.RawMessage(`"data"`), 3, 0)
	if err != nil {
		t.Fatalf("PutReplicated failed: %v", err)
	}
	if acks != 2 {
		t.Errorf("expected 2 acks with one node down, got %d", acks)
	}
}

func TestPutReplicatedMoreThanMembers(t *testing.T) {
	_, c := newTestCluster(t, "a", "b")

	acks, err := c.PutReplicated("key", json.RawMessage(`1`), 5, 0)
	if err != nil {
		t.Fatalf("PutReplicated failed: %v", err)
	}
	if acks != 2 {
		t.Errorf("a 2-member ring can give at most 2 acks, got %d", acks)
	}
}

func TestGetReplicatedFirstSuccess(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")

	// plant the value only on the LAST replica candidate; the walk must
	// still find it
	candidates := c.Ring().NodesFor("replicated:key", 3)
	last := candidates[len(candidates)-1]
	tc.stores[last].Put("replicated:key", json.RawMessage(`"planted"`), 0)

	got, loaded, err := c.GetReplicated("replicated:key", 1)
	if err != nil || !loaded {
		t.Fatalf("GetReplicated failed: loaded=%t err=%v", loaded, err)
	}
	if !bytes.Equal(got, json.RawMessage(`"planted"`)) {
		t.Errorf("GetReplicated returned %s", got)
	}
}

func TestGetReplicatedAllAbsent(t *testing.T) {
	_, c := newTestCluster(t, "a", "b", "c")

	if _, loaded, _ := c.GetReplicated("never-stored", 1); loaded {
		t.Errorf("GetReplicated found a value nobody stored")
	}
}

func TestGetReplicatedSurvivesDeadPrimary(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")

	if acks, _ := c.PutReplicated("resilient", json.RawMessage(`42`), 3, 0); acks != 3 {
		t.Fatalf("seed write incomplete")
	}

	primary, _ := c.Ring().NodeFor("resilient")
	tc.servers[primary].Close()

	got, loaded, err := c.GetReplicated("resilient", 1)
	if err != nil || !loaded {
		t.Fatalf("read should fall through to a live replica: loaded=%t err=%v", loaded, err)
	}
	if !bytes.Equal(got, json.RawMessage(`42`)) {
		t.Errorf("got %s", got)
	}
}

func TestStatsFanOutDegradesPerNode(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")
	if ok, _ := c.Put("key", json.RawMessage(`1`), 0); !ok {
		t.Fatalf("seed write failed")
	}

	tc.servers["b"].Close()

	stats := c.Stats()
	if len(stats) != 3 {
		t.Fatalf("expected an entry per node, got %d", len(stats))
	}
	if stats["b"].Error == "" || stats["b"].Stats != nil {
		t.Errorf("dead node should report an error entry: %+v", stats["b"])
	}
	for _, id := range []string{"a", "c"} {
		if stats[id].Error != "" || stats[id].Stats == nil {
			t.Errorf("live node %q degraded by b's failure: %+v", id, stats[id])
		}
		if stats[id].Stats.NodeID != id {
			t.Errorf("stats for %q report node_id %q", id, stats[id].Stats.NodeID)
		}
	}
}

func TestHealthFanOut(t *testing.T) {
	tc, c := newTestCluster(t, "a", "b", "c")

	health := c.Health()
	if !health.ClusterHealthy || health.HealthyCount != 3 {
		t.Fatalf("all nodes up but health = %+v", health)
	}

	tc.servers["c"].Close()
	health = c.Health()
	if health.ClusterHealthy {
		t.Errorf("cluster reported healthy with a dead node")
	}
	if health.HealthyCount != 2 || health.UnhealthyCount != 1 {
		t.Errorf("unexpected counts: %+v", health)
	}
	if len(health.UnhealthyNodes) != 1 || health.UnhealthyNodes[0] != "c" {
		t.Errorf("wrong node flagged: %+v", health.UnhealthyNodes)
	}
}

func TestMembershipSnapshotSwap(t *testing.T) {
	_, c := newTestCluster(t, "a", "b")

	before := c.Ring()
	store := memcache.New(&memcache.Options{ReapInterval: time.Hour})
	srv := httptest.NewServer(server.NewNode("c", "127.0.0.1:0", store, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	c.AddNode("c", srv.URL)

	// the old snapshot is untouched, the new one has the member
	if before.Has("c") {
		t.Errorf("membership change mutated an existing snapshot")
	}
	if !c.Ring().Has("c") {
		t.Errorf("new snapshot is missing the added node")
	}

	c.RemoveNode("a")
	if c.Ring().Has("a") {
		t.Errorf("removed node still on the ring")
	}
	if _, ok := c.endpoint("a"); ok {
		t.Errorf("removed node still has an endpoint")
	}

	// routing still works against the updated membership
	if ok, err := c.Put("key", json.RawMessage(`1`), 0); err != nil || !ok {
		t.Errorf("Put after membership change: ok=%t err=%v", ok, err)
	}
}
