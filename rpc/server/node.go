package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"

	"ringcache/lib/cache"
	"ringcache/lib/ratelimit"
	"ringcache/rpc/common"
)

var logger = common.GetLogger("rpc/server")

// --------------------------------------------------------------------------
// Node
// --------------------------------------------------------------------------

// Node is one cache node: an ICache engine exposed over the HTTP JSON API.
// Every node owns its storage exclusively; nothing is shared between nodes
// in the same process.
type Node struct {
	id        string
	addr      string
	store     cache.ICache
	gate      *ratelimit.Limiter
	metrics   *metrics.Set
	startTime time.Time

	srv *http.Server
}

// NewNode creates a cache node serving the given store on addr. A nil gate
// disables admission control.
//
// Usage:
//
//	n := server.NewNode("node-1", ":8001", memcache.New(nil), nil)
//	if err := n.Start(); err != nil {
//		panic(err)
//	}
func NewNode(id, addr string, store cache.ICache, gate *ratelimit.Limiter) *Node {
	n := &Node{
		id:        id,
		addr:      addr,
		store:     store,
		gate:      gate,
		metrics:   metrics.NewSet(),
		startTime: time.Now(),
	}
	n.srv = &http.Server{
		Addr:    addr,
		Handler: n.Handler(),
	}
	return n
}

// ID returns the node's ring identifier.
func (n *Node) ID() string {
	return n.id
}

// Handler builds the node's HTTP router. Exposed separately from Start so
// tests can mount it on an httptest server.
func (n *Node) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(n.recoverMiddleware)
	r.Use(n.metricsMiddleware)
	if n.gate != nil {
		r.Use(n.admissionMiddleware)
	}

	r.Get("/cache/{key}", n.handleGet)
	r.Post("/cache/{key}", n.handlePut)
	r.Delete("/cache/{key}", n.handleDelete)
	r.Get("/stats", n.handleStats)
	r.Get("/health", n.handleHealth)
	r.Get("/metrics", n.handleMetrics)

	return r
}

// Start listens on the node's address until Shutdown. It blocks.
func (n *Node) Start() error {
	logger.Infof("cache node %q listening on %s", n.id, n.addr)
	if err := n.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and closes the storage engine.
func (n *Node) Shutdown(ctx context.Context) error {
	logger.Infof("shutting down cache node %q", n.id)
	err := n.srv.Shutdown(ctx)
	if cerr := n.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (n *Node) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, loaded := n.store.Get(key)
	if !loaded {
		writeJSON(w, http.StatusNotFound, common.ErrorResponse{Error: "Key not found"})
		return
	}
	writeJSON(w, http.StatusOK, common.GetResponse{Key: key, Value: value})
}

func (n *Node) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req common.PutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, common.ErrorResponse{Error: "Invalid JSON in request body"})
		return
	}
	if isMissingValue(req.Value) {
		writeJSON(w, http.StatusBadRequest, common.ErrorResponse{Error: "Missing 'value' in request body"})
		return
	}

	var ttl time.Duration
	if req.TTL != nil {
		ttl = time.Duration(*req.TTL) * time.Second
	}
	n.store.Put(key, req.Value, ttl)

	writeJSON(w, http.StatusOK, common.PutResponse{
		Message: "Key stored successfully",
		Key:     key,
		Value:   req.Value,
		TTL:     req.TTL,
	})
}

func (n *Node) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if !n.store.Delete(key) {
		writeJSON(w, http.StatusNotFound, common.ErrorResponse{Error: "Key not found"})
		return
	}
	writeJSON(w, http.StatusOK, common.DeleteResponse{Message: "Key deleted successfully"})
}

func (n *Node) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, common.StatsResponse{
		Stats:  n.store.Stats(),
		NodeID: n.id,
		Port:   addrPort(n.addr),
	})
}

func (n *Node) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, common.HealthResponse{
		Status:        "healthy",
		NodeID:        n.id,
		UptimeSeconds: time.Since(n.startTime).Seconds(),
	})
}

func (n *Node) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	n.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// isMissingValue reports whether the request carried no usable value.
// JSON null counts as missing, matching "value is required".
func isMissingValue(value json.RawMessage) bool {
	return len(value) == 0 || string(value) == "null"
}

// addrPort extracts the numeric port from a listen address, 0 if unknown.
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
