package common

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Defaults for the tunables the core consumes.
const (
	DefaultVirtualNodes  = 150 // ring positions per physical node
	DefaultReapInterval  = 60  // seconds between expiry sweeps
	DefaultTimeoutSecond = 5   // per-call RPC timeout
)

// Seconds converts a whole-second config value to a time.Duration.
func Seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// --------------------------------------------------------------------------
// Node server configuration struct
// --------------------------------------------------------------------------

// NodeSpec names one cache node and the address it listens on.
type NodeSpec struct {
	// ID is the node identifier used on the hash ring (e.g. "node-1")
	ID string
	// Addr is the listen address (e.g. ":8001" or "127.0.0.1:8001")
	Addr string
}

// ServerConfig holds all configuration for a process hosting cache nodes.
type ServerConfig struct {
	// Nodes are the cache nodes hosted by this process
	Nodes []NodeSpec

	// ReapIntervalSecond is the pause between expiry sweeps per node
	ReapIntervalSecond int

	// Rate limiting for the node API (0 = disabled)
	RateLimitRequests  int
	RateLimitWindowSec int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Cache Nodes")
	for _, node := range c.Nodes {
		addField(node.ID, node.Addr)
	}

	addSection("Storage")
	addField("Reap Interval", fmt.Sprintf("%d sec", c.ReapIntervalSecond))

	addSection("Admission Gate")
	if c.RateLimitRequests > 0 {
		addField("Max Requests", fmt.Sprintf("%d per %d sec", c.RateLimitRequests, c.RateLimitWindowSec))
	} else {
		addField("Max Requests", "unlimited")
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Routing client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration for the routing client.
type ClientConfig struct {
	// Nodes maps node ids to their base URLs (e.g. "node-1" -> "http://localhost:8001")
	Nodes map[string]string

	// TimeoutSecond is the per-call RPC timeout
	TimeoutSecond int

	// VirtualNodes is the ring position count per physical node
	VirtualNodes int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Virtual Nodes", fmt.Sprintf("%d", c.VirtualNodes))

	addSection("Cluster Members")
	ids := make([]string, 0, len(c.Nodes))
	for id := range c.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		addField(id, c.Nodes[id])
	}

	return sb.String()
}
