package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ligustah/filekit/internal/metrics"
	"github.com/ligustah/filekit/pkg/filekit"
)

// runDelete removes stored objects. By default prompts for confirmation
// unless -force is specified.
func runDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)

	var sf storageFlags
	sf.register(fs)
	force := fs.Bool("force", false, "Skip confirmation prompt")
	ignoreMissing := fs.Bool("ignore-missing", false, "Treat paths that do not exist as deleted")
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: filekit delete [options] PATH...

Remove stored objects by their storage path (e.g. 1/abc.jpg).

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one PATH is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := sf.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	// Confirm deletion unless -force
	if !*force {
		fmt.Fprintf(os.Stderr, "Delete %d object(s) from %s? [y/N]: ", len(paths), cfg.Bucket)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return ExitSuccess
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := openStorage(ctx, cfg, newLogger(sf.verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		return ExitStorageError
	}
	defer closeStore()

	var m *metrics.Metrics
	if *metricsFile != "" {
		m, err = metrics.New(prometheus.NewRegistry(), cfg.Bucket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
		m.Observe(store)
	}

	results := store.DeleteAll(ctx, paths)

	failed := 0
	for _, r := range results {
		switch {
		case r.Err == nil:
			fmt.Fprintf(os.Stderr, "[filekit] Deleted: %s\n", r.Path)
		case *ignoreMissing && filekit.IsDeclined(r.Err):
			fmt.Fprintf(os.Stderr, "[filekit] Already gone: %s\n", r.Path)
		default:
			failed++
			fmt.Fprintf(os.Stderr, "[filekit] Failed: %s: %v\n", r.Path, r.Err)
		}
	}

	if m != nil {
		m.RecordDeleteResults(results)
		if err := m.WriteToTextfile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	switch {
	case failed == 0:
		return ExitSuccess
	case failed < len(paths):
		return ExitPartialFailure
	default:
		return ExitStorageError
	}
}
