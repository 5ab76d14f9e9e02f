package kv

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "ringcache/cmd/util"
	"ringcache/rpc/client"
	"ringcache/rpc/common"
)

var (
	// KeyValueCommands groups all client-side cache operations
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Interact with the distributed cache",
		Long:  `Interact with the distributed cache: store, retrieve and delete keys, and inspect cluster statistics and health. Requests are routed to the owning node(s) via consistent hashing.`,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)
	cmdUtil.SetupClientFlags(KeyValueCommands)

	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(statsCmd)
	KeyValueCommands.AddCommand(healthCmd)
	KeyValueCommands.AddCommand(perfCmd)
}

// newClient builds a routing client from the bound flags.
func newClient(cmd *cobra.Command) (*client.RoutingClient, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	config, err := cmdUtil.GetClientConfig()
	if err != nil {
		return nil, err
	}
	common.InitLoggers("warn")
	return client.New(*config), nil
}
