package kv

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "ringcache/cmd/util"
	"ringcache/rpc/client"
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Measure cache throughput from this client",
	Long:  "Run a simple set/get throughput measurement against the cluster. Keys are spread over the ring like normal traffic, so the numbers include routing overhead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		threads := viper.GetInt("threads")
		keys := viper.GetInt("keys")

		fmt.Printf("%d threads x %d keys\n\n", threads, keys)
		fmt.Printf("%-8s %12s %12s\n", "op", "total", "ops/sec")

		setOps, setRate := runPerf(threads, keys, func(key string) {
			_, _ = c.Put(key, json.RawMessage(`"perf-value"`), 0)
		})
		fmt.Printf("%-8s %12d %12.0f\n", "set", setOps, setRate)

		getOps, getRate := runPerf(threads, keys, func(key string) {
			_, _, _ = c.Get(key)
		})
		fmt.Printf("%-8s %12d %12.0f\n", "get", getOps, getRate)

		// leave no benchmark keys behind
		cleanup(c, threads, keys)
		return nil
	},
}

func init() {
	key := "threads"
	perfCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of concurrent worker goroutines"))
	key = "keys"
	perfCmd.Flags().Int(key, 100, cmdUtil.WrapString("Number of keys per worker"))
}

// perfKey derives the benchmark key for one worker/index pair.
func perfKey(worker, i int) string {
	return fmt.Sprintf("__perf:%d:%d", worker, i)
}

// runPerf fans the operation out over the workers and reports total ops and
// throughput.
func runPerf(threads, keys int, op func(key string)) (int, float64) {
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				op(perfKey(w, i))
			}
		}(w)
	}
	wg.Wait()

	total := threads * keys
	return total, float64(total) / time.Since(start).Seconds()
}

func cleanup(c *client.RoutingClient, threads, keys int) {
	for w := 0; w < threads; w++ {
		for i := 0; i < keys; i++ {
			_, _ = c.Delete(perfKey(w, i))
		}
	}
}
