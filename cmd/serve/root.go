package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "ringcache/cmd/util"
	"ringcache/lib/cache"
	"ringcache/lib/cache/memcache"
	"ringcache/rpc/common"
	"ringcache/rpc/server"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start one or more cache nodes",
		Long:    `Start cache nodes in this process. Configuration can be set via command line flags or environment variables in the format RINGCACHE_<flag> (e.g. RINGCACHE_REAP_INTERVAL=30).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	key := "nodes"
	ServeCmd.PersistentFlags().String(key, "node-1=:8001", cmdUtil.WrapString("Comma-separated list of cache nodes to host. Format: ID=ADDRESS (e.g. node-1=:8001,node-2=:8002)"))

	key = "reap-interval"
	ServeCmd.PersistentFlags().Int(key, common.DefaultReapInterval, cmdUtil.WrapString("Seconds between background sweeps for expired entries"))

	key = "rate-limit"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum requests per client within the rate-limit window (0 = unlimited)"))

	key = "rate-limit-window"
	ServeCmd.PersistentFlags().Int(key, 60, cmdUtil.WrapString("Length of the rate-limit window in seconds"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	nodes, err := cmdUtil.ParseNodeList(viper.GetString("nodes"))
	if err != nil {
		return err
	}

	serveCmdConfig.Nodes = nodes
	serveCmdConfig.ReapIntervalSecond = viper.GetInt("reap-interval")
	serveCmdConfig.RateLimitRequests = viper.GetInt("rate-limit")
	serveCmdConfig.RateLimitWindowSec = viper.GetInt("rate-limit-window")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	reapInterval := common.Seconds(serveCmdConfig.ReapIntervalSecond)
	cluster, err := server.NewCluster(*serveCmdConfig, func() cache.ICache {
		return memcache.New(&memcache.Options{ReapInterval: reapInterval})
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- cluster.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return cluster.Shutdown(ctx)
	}
}
