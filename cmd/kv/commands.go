package kv

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "ringcache/cmd/util"
)

var (
	setCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value in the cache",
		Long:  "Store a value in the cache. The value is interpreted as JSON when possible and stored as a JSON string otherwise. With --replicas > 1 the value is written to that many distinct nodes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			key, value := args[0], toJSON(args[1])
			ttl := time.Duration(viper.GetInt("ttl")) * time.Second
			replicas := viper.GetInt("replicas")

			if replicas > 1 {
				acks, err := c.PutReplicated(key, value, replicas, ttl)
				if err != nil {
					return err
				}
				fmt.Printf("stored %q on %d/%d replicas\n", key, acks, replicas)
				return nil
			}

			ok, err := c.Put(key, value, ttl)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to store %q", key)
			}
			fmt.Printf("stored %q\n", key)
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve a value from the cache",
		Long:  "Retrieve a value from the cache. By default only the key's primary node is asked; with --quorum > 0 the replica candidates are tried in ring order and the first present value wins.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			quorum := viper.GetInt("quorum")

			var (
				value  json.RawMessage
				loaded bool
			)
			if quorum > 0 {
				value, loaded, err = c.GetReplicated(key, quorum)
			} else {
				value, loaded, err = c.Get(key)
			}
			if err != nil {
				return err
			}
			if !loaded {
				return fmt.Errorf("key %q not found", key)
			}
			fmt.Println(string(value))
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a key from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			deleted, err := c.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Printf("deleted %q\n", args[0])
			return nil
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics for every node",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			stats := c.Stats()
			ids := make([]string, 0, len(stats))
			for id := range stats {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			for _, id := range ids {
				entry := stats[id]
				if entry.Error != "" {
					fmt.Printf("%-10s: error: %s\n", id, entry.Error)
					continue
				}
				fmt.Printf("%-10s: %d keys (%d with ttl, %d expired), ~%d bytes\n",
					id, entry.Stats.TotalKeys, entry.Stats.KeysWithTTL,
					entry.Stats.ExpiredKeys, entry.Stats.MemoryEstimate)
			}
			return nil
		},
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the health of every node",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			health := c.Health()
			fmt.Printf("cluster health: %d/%d nodes healthy\n", health.HealthyCount, health.TotalNodes)
			for _, id := range health.HealthyNodes {
				fmt.Printf("  %-10s: healthy\n", id)
			}
			for _, id := range health.UnhealthyNodes {
				fmt.Printf("  %-10s: UNREACHABLE\n", id)
			}
			if !health.ClusterHealthy {
				return fmt.Errorf("%d node(s) unhealthy", health.UnhealthyCount)
			}
			return nil
		},
	}
)

func init() {
	key := "ttl"
	setCmd.Flags().Int(key, 0, cmdUtil.WrapString("Time to live in seconds (0 = never expires)"))
	key = "replicas"
	setCmd.Flags().Int(key, 1, cmdUtil.WrapString("Number of distinct nodes to write the value to"))

	key = "quorum"
	getCmd.Flags().Int(key, 0, cmdUtil.WrapString("Read-quorum size for a replicated read (0 = single primary read)"))
}

// toJSON passes valid JSON through untouched and quotes everything else as
// a JSON string, so `kv set k hello` and `kv set k '{"a":1}'` both work.
func toJSON(arg string) json.RawMessage {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	quoted, _ := json.Marshal(arg)
	return quoted
}
