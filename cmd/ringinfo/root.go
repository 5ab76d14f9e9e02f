package ringinfo

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "ringcache/cmd/util"
	"ringcache/lib/ring"
)

var RingCmd = &cobra.Command{
	Use:   "ring [key...]",
	Short: "Inspect key placement and load distribution",
	Long:  "Build the hash ring for the configured nodes and show how evenly the hash space is split. Any keys given as arguments are resolved to their owning node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		config, err := cmdUtil.GetClientConfig()
		if err != nil {
			return err
		}

		r := ring.New(config.VirtualNodes)
		for id := range config.Nodes {
			r.AddNode(id)
		}

		fmt.Println(r.String())

		stats := ring.NewLoadStats(r.LoadDistribution())
		fmt.Printf("\nbalance quality: %.3f (std dev %.4f, min/max %.3f)\n",
			stats.BalanceQuality, stats.StdDeviation, stats.MinMaxRatio)

		if len(args) > 0 {
			fmt.Println("\nkey placement:")
			for _, key := range args {
				owner, _ := r.NodeFor(key)
				replicas := r.NodesFor(key, 3)
				fmt.Printf("  %-24s -> %s (replicas: %v)\n", key, owner, replicas)
			}
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)
	cmdUtil.SetupClientFlags(RingCmd)
}
