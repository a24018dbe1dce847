package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ligustah/filekit/internal/metrics"
)

// runShard prints the shard index the next save will use. Like a save, it
// initialises the index on an empty bucket and rolls over a full shard.
func runShard(args []string) int {
	fs := flag.NewFlagSet("shard", flag.ContinueOnError)

	var sf storageFlags
	sf.register(fs)
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: filekit shard [options]

Print the current shard index of a bucket.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := sf.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := openStorage(ctx, cfg, newLogger(sf.verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		return ExitStorageError
	}
	defer closeStore()

	shard, err := store.CurrentShard(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintln(stdout, shard)

	if *metricsFile != "" {
		m, err := metrics.New(prometheus.NewRegistry(), cfg.Bucket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
		m.SetCurrentShard(shard)
		if err := m.WriteToTextfile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
	}
	return ExitSuccess
}
