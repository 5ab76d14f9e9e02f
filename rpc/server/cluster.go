package server

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"ringcache/lib/cache"
	"ringcache/lib/ratelimit"
	"ringcache/rpc/common"
)

// --------------------------------------------------------------------------
// Cluster
// --------------------------------------------------------------------------

// Cluster hosts one or more cache nodes in a single process. Each node gets
// its own storage engine from the factory and its own listener; the nodes
// share nothing but the process.
type Cluster struct {
	config common.ServerConfig
	nodes  *xsync.MapOf[string, *Node]
}

// NewCluster creates all nodes named in the configuration.
//
// Usage:
//
//	c := server.NewCluster(config, func() cache.ICache {
//		return memcache.New(nil)
//	})
//
//	if err := c.Serve(); err != nil {
//		panic(err)
//	}
func NewCluster(config common.ServerConfig, factory cache.Factory) (*Cluster, error) {
	if len(config.Nodes) == 0 {
		return nil, fmt.Errorf("no cache nodes configured")
	}

	var gate *ratelimit.Limiter
	if config.RateLimitRequests > 0 {
		gate = ratelimit.New(config.RateLimitRequests, common.Seconds(config.RateLimitWindowSec))
	}

	nodes := xsync.NewMapOf[string, *Node]()
	for _, spec := range config.Nodes {
		if _, dup := nodes.Load(spec.ID); dup {
			return nil, fmt.Errorf("duplicate node id %q", spec.ID)
		}
		nodes.Store(spec.ID, NewNode(spec.ID, spec.Addr, factory(), gate))
		logger.Infof("created cache node %q on %s", spec.ID, spec.Addr)
	}

	return &Cluster{config: config, nodes: nodes}, nil
}

// Node returns a hosted node by id.
func (c *Cluster) Node(id string) (*Node, bool) {
	return c.nodes.Load(id)
}

// Serve starts every node and blocks until the first one fails.
func (c *Cluster) Serve() error {
	logger.Infof("starting cluster")
	logger.Info(c.config.String())

	errCh := make(chan error, c.nodes.Size())
	c.nodes.Range(func(id string, n *Node) bool {
		go func() {
			if err := n.Start(); err != nil {
				errCh <- fmt.Errorf("node %q: %w", id, err)
			}
		}()
		return true
	})

	return <-errCh
}

// Shutdown stops every node. The first error is returned, but all nodes are
// shut down regardless.
func (c *Cluster) Shutdown(ctx context.Context) error {
	var firstErr error
	c.nodes.Range(func(id string, n *Node) bool {
		if err := n.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}
