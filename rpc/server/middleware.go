package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"ringcache/rpc/common"
)

// --------------------------------------------------------------------------
// Middleware
// --------------------------------------------------------------------------

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// recoverMiddleware converts a handler panic into a 500 error response.
// The fault stays scoped to the one request: it is logged and never takes
// the node down.
func (n *Node) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("[%s] panic handling %s %s: %v", n.id, r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, common.ErrorResponse{Error: fmt.Sprintf("%v", rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware counts requests per method and status and logs them at
// debug level.
func (n *Node) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		n.metrics.GetOrCreateCounter(fmt.Sprintf(
			`ringcache_node_requests_total{node=%q,method=%q,status="%d"}`,
			n.id, r.Method, rw.statusCode,
		)).Inc()
		logger.Debugf("[%s] %s %s => %d took %s", n.id, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// admissionMiddleware rejects clients that exceeded the sliding-window
// limit with 429. Clients are identified by remote host.
func (n *Node) admissionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !n.gate.Allow(client) {
			writeJSON(w, http.StatusTooManyRequests, common.ErrorResponse{Error: "Rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
