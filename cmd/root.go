package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ringcache/cmd/kv"
	"ringcache/cmd/ringinfo"
	"ringcache/cmd/serve"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ringcache",
		Short: "distributed key-value cache",
		Long: fmt.Sprintf(`ringcache (v%s)

A demonstration distributed key-value cache: independent storage nodes
addressed via consistent hashing, with client-side replication and
best-effort replicated reads.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ringcache",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ringcache v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(ringinfo.RingCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
