package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ringcache/rpc/common"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// ParseNodeList parses a comma-separated "id=value" list, e.g.
// "node-1=:8001,node-2=:8002" or "node-1=http://localhost:8001,...".
// Order is preserved; duplicate ids are an error.
func ParseNodeList(list string) ([]common.NodeSpec, error) {
	var specs []common.NodeSpec
	seen := make(map[string]struct{})

	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid node format: %s (expected ID=ADDRESS)", item)
		}
		id := strings.TrimSpace(parts[0])
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate node id: %s", id)
		}
		seen[id] = struct{}{}
		specs = append(specs, common.NodeSpec{ID: id, Addr: strings.TrimSpace(parts[1])})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("empty node list")
	}
	return specs, nil
}

// SetupClientFlags adds the cluster connection flags shared by all client
// commands.
func SetupClientFlags(cmd *cobra.Command) {
	key := "nodes"
	cmd.PersistentFlags().String(key, "node-1=http://localhost:8001,node-2=http://localhost:8002,node-3=http://localhost:8003",
		WrapString("Comma-separated list of cache nodes in the format ID=URL"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, WrapString("Per-request timeout in seconds"))

	key = "virtual-nodes"
	cmd.PersistentFlags().Int(key, common.DefaultVirtualNodes, WrapString("Number of virtual nodes per physical node on the hash ring"))
}

// InitConfig initializes configuration from environment variables. Flags
// can be overridden as RINGCACHE_<flag>, e.g. RINGCACHE_TIMEOUT=10.
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("ringcache")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// GetClientConfig reads the client configuration from viper.
func GetClientConfig() (*common.ClientConfig, error) {
	specs, err := ParseNodeList(viper.GetString("nodes"))
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]string, len(specs))
	for _, spec := range specs {
		nodes[spec.ID] = spec.Addr
	}

	return &common.ClientConfig{
		Nodes:         nodes,
		TimeoutSecond: viper.GetInt("timeout"),
		VirtualNodes:  viper.GetInt("virtual-nodes"),
	}, nil
}
