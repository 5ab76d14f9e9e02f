package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ringcache/lib/ring"
	"ringcache/rpc/common"
)

var logger = common.GetLogger("rpc/client")

// ErrNoNodes is returned when a lookup hits an empty ring. An empty ring is
// a configuration mistake, the single condition this client surfaces as an
// error: every remote failure mode is folded into false/absent results
// instead.
var ErrNoNodes = errors.New("no nodes available in hash ring")

// --------------------------------------------------------------------------
// RoutingClient
// --------------------------------------------------------------------------

// RoutingClient routes cache operations to nodes chosen by a consistent
// hash ring, and layers best-effort replication on top.
//
// Thread-safety: lookups read an immutable ring snapshot through an atomic
// pointer; membership changes clone the current snapshot, mutate the clone
// and swap it in. Concurrent readers therefore observe either the old or
// the new ring, never a partially updated one. Mutations themselves are
// serialized by a mutex.
type RoutingClient struct {
	config    common.ClientConfig
	http      *http.Client
	endpoints map[string]string // node id -> base URL, guarded by mu
	mu        sync.Mutex        // serializes membership changes
	ring      atomic.Pointer[ring.Ring]
	group     singleflight.Group
}

// New creates a routing client for the nodes in the configuration.
//
// Usage:
//
//	c := client.New(common.ClientConfig{
//		Nodes: map[string]string{
//			"node-1": "http://localhost:8001",
//			"node-2": "http://localhost:8002",
//		},
//	})
func New(config common.ClientConfig) *RoutingClient {
	if config.TimeoutSecond <= 0 {
		config.TimeoutSecond = common.DefaultTimeoutSecond
	}
	if config.VirtualNodes <= 0 {
		config.VirtualNodes = common.DefaultVirtualNodes
	}

	c := &RoutingClient{
		config:    config,
		endpoints: make(map[string]string, len(config.Nodes)),
		http: &http.Client{
			Timeout: common.Seconds(config.TimeoutSecond),
		},
	}

	r := ring.New(config.VirtualNodes)
	for id, baseURL := range config.Nodes {
		c.endpoints[id] = baseURL
		r.AddNode(id)
	}
	c.ring.Store(r)

	logger.Infof("routing client initialized with %d nodes", r.Len())
	return c
}

// --------------------------------------------------------------------------
// Membership
// --------------------------------------------------------------------------

// AddNode registers a node and its endpoint with the ring. Adding a known
// id only updates the endpoint.
func (c *RoutingClient) AddNode(id, baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoints[id] = baseURL
	next := c.ring.Load().Clone()
	next.AddNode(id)
	c.ring.Store(next)
}

// RemoveNode removes a node from the ring. Unknown ids are a no-op.
func (c *RoutingClient) RemoveNode(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.endpoints, id)
	next := c.ring.Load().Clone()
	next.RemoveNode(id)
	c.ring.Store(next)
}

// Ring returns the current ring snapshot. The snapshot is immutable; it is
// safe to read from any goroutine but must not be mutated.
func (c *RoutingClient) Ring() *ring.Ring {
	return c.ring.Load()
}

// endpoint resolves a node id to its base URL.
func (c *RoutingClient) endpoint(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	baseURL, ok := c.endpoints[id]
	return baseURL, ok
}

// --------------------------------------------------------------------------
// Single-primary operations
// --------------------------------------------------------------------------

// Put stores a value on the key's primary node. A ttl > 0 expires the entry
// after that duration; ttl <= 0 stores it without expiry. The boolean is
// false when the node is unreachable or answers non-2xx.
func (c *RoutingClient) Put(key string, value json.RawMessage, ttl time.Duration) (bool, error) {
	id, ok := c.Ring().NodeFor(key)
	if !ok {
		return false, ErrNoNodes
	}
	return c.putOne(id, key, value, ttl), nil
}

// Get fetches a value from the key's primary node. Absent and unreachable
// both report loaded=false.
func (c *RoutingClient) Get(key string) (json.RawMessage, bool, error) {
	id, ok := c.Ring().NodeFor(key)
	if !ok {
		return nil, false, ErrNoNodes
	}
	value, loaded := c.getOne(id, key)
	return value, loaded, nil
}

// Delete removes a key from its primary node, reporting whether the node
// confirmed a deletion.
func (c *RoutingClient) Delete(key string) (bool, error) {
	id, ok := c.Ring().NodeFor(key)
	if !ok {
		return false, ErrNoNodes
	}

	baseURL, ok := c.endpoint(id)
	if !ok {
		return false, nil
	}

	req, err := http.NewRequest(http.MethodDelete, cacheURL(baseURL, key), nil)
	if err != nil {
		return false, nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warnf("network error deleting key %q from %s: %v", key, id, err)
		return false, nil
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		logger.Warnf("error deleting key %q from %s: %s", key, id, resp.Status)
		return false, nil
	}
}

// --------------------------------------------------------------------------
// Replicated operations
// --------------------------------------------------------------------------

// PutReplicated writes the value to the first `replicas` distinct nodes
// clockwise from the key. The writes are independent: there is no cross-node
// atomicity, and partial success is a valid outcome. Returns the number of
// nodes that acknowledged the write.
func (c *RoutingClient) PutReplicated(key string, value json.RawMessage, replicas int, ttl time.Duration) (int, error) {
	r := c.Ring()
	if r.Len() == 0 {
		return 0, ErrNoNodes
	}

	var acks atomic.Int32
	g := errgroup.Group{}
	for _, id := range r.NodesFor(key, replicas) {
		id := id
		g.Go(func() error {
			if c.putOne(id, key, value, ttl) {
				acks.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are just missing acks

	return int(acks.Load()), nil
}

// GetReplicated reads the key from its replica candidates in ring order and
// returns the first present value. It inspects readQuorum+2 candidates to
// tolerate unreachable nodes; this is first-success-of-N, not a reconciled
// quorum read, so replicas are never compared or repaired.
func (c *RoutingClient) GetReplicated(key string, readQuorum int) (json.RawMessage, bool, error) {
	r := c.Ring()
	if r.Len() == 0 {
		return nil, false, ErrNoNodes
	}

	for _, id := range r.NodesFor(key, readQuorum+2) {
		if value, loaded := c.getOne(id, key); loaded {
			return value, true, nil
		}
	}
	return nil, false, nil
}

// --------------------------------------------------------------------------
// Cluster-wide operations
// --------------------------------------------------------------------------

// NodeStats is one node's statistics, or the reason they are missing.
type NodeStats struct {
	Stats *common.StatsResponse `json:"stats,omitempty"`
	Error string                `json:"error,omitempty"`
}

// Stats collects storage statistics from every known node. Nodes are polled
// independently: one failing node degrades only its own entry.
func (c *RoutingClient) Stats() map[string]NodeStats {
	results := make(map[string]NodeStats)
	var mu sync.Mutex

	g := errgroup.Group{}
	for _, id := range c.Ring().Members() {
		id := id
		g.Go(func() error {
			entry := c.statsOne(id)
			mu.Lock()
			results[id] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ClusterHealth summarizes a point-in-time health poll of every node.
type ClusterHealth struct {
	HealthyNodes   []string `json:"healthy_nodes"`
	UnhealthyNodes []string `json:"unhealthy_nodes"`
	TotalNodes     int      `json:"total_nodes"`
	HealthyCount   int      `json:"healthy_count"`
	UnhealthyCount int      `json:"unhealthy_count"`
	ClusterHealthy bool     `json:"cluster_healthy"`
}

// Health polls every node's /health endpoint. A node is healthy iff it
// answers 200 within the timeout.
func (c *RoutingClient) Health() ClusterHealth {
	members := c.Ring().Members()
	health := ClusterHealth{TotalNodes: len(members)}
	var mu sync.Mutex

	g := errgroup.Group{}
	for _, id := range members {
		id := id
		g.Go(func() error {
			healthy := c.healthOne(id)
			mu.Lock()
			if healthy {
				health.HealthyNodes = append(health.HealthyNodes, id)
			} else {
				health.UnhealthyNodes = append(health.UnhealthyNodes, id)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	health.HealthyCount = len(health.HealthyNodes)
	health.UnhealthyCount = len(health.UnhealthyNodes)
	health.ClusterHealthy = health.UnhealthyCount == 0
	return health
}

// --------------------------------------------------------------------------
// Per-node requests
// --------------------------------------------------------------------------

// putOne writes key=value to one node. Every failure mode (unreachable,
// timeout, non-2xx) collapses into false.
func (c *RoutingClient) putOne(id, key string, value json.RawMessage, ttl time.Duration) bool {
	baseURL, ok := c.endpoint(id)
	if !ok {
		return false
	}

	reqBody := common.PutRequest{Value: value}
	if ttl > 0 {
		seconds := int64(ttl / time.Second)
		reqBody.TTL = &seconds
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return false
	}

	resp, err := c.http.Post(cacheURL(baseURL, key), "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Warnf("network error setting key %q on %s: %v", key, id, err)
		return false
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("error setting key %q on %s: %s", key, id, resp.Status)
		return false
	}
	return true
}

// getOne fetches key from one node. Concurrent fetches for the same key on
// the same node are deduplicated through singleflight.
func (c *RoutingClient) getOne(id, key string) (json.RawMessage, bool) {
	type result struct {
		value  json.RawMessage
		loaded bool
	}

	v, _, _ := c.group.Do(id+"\x00"+key, func() (any, error) {
		value, loaded := c.fetch(id, key)
		return result{value: value, loaded: loaded}, nil
	})

	res := v.(result)
	return res.value, res.loaded
}

// fetch performs the actual GET /cache/{key} request against one node.
func (c *RoutingClient) fetch(id, key string) (json.RawMessage, bool) {
	baseURL, ok := c.endpoint(id)
	if !ok {
		return nil, false
	}

	resp, err := c.http.Get(cacheURL(baseURL, key))
	if err != nil {
		logger.Warnf("network error getting key %q from %s: %v", key, id, err)
		return nil, false
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var body common.GetResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			logger.Warnf("malformed response for key %q from %s: %v", key, id, err)
			return nil, false
		}
		return body.Value, true
	case http.StatusNotFound:
		return nil, false
	default:
		logger.Warnf("error getting key %q from %s: %s", key, id, resp.Status)
		return nil, false
	}
}

// statsOne polls one node's /stats endpoint.
func (c *RoutingClient) statsOne(id string) NodeStats {
	baseURL, ok := c.endpoint(id)
	if !ok {
		return NodeStats{Error: "unknown node"}
	}

	resp, err := c.http.Get(baseURL + "/stats")
	if err != nil {
		return NodeStats{Error: err.Error()}
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return NodeStats{Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var stats common.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return NodeStats{Error: err.Error()}
	}
	return NodeStats{Stats: &stats}
}

// healthOne polls one node's /health endpoint.
func (c *RoutingClient) healthOne(id string) bool {
	baseURL, ok := c.endpoint(id)
	if !ok {
		return false
	}

	resp, err := c.http.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer drainAndClose(resp.Body)

	return resp.StatusCode == http.StatusOK
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// cacheURL builds the /cache/{key} URL for a node.
func cacheURL(baseURL, key string) string {
	return baseURL + "/cache/" + url.PathEscape(key)
}

// drainAndClose releases the response body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
