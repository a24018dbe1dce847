package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/filekit/internal/config"
	"github.com/ligustah/filekit/pkg/filekit"
)

// runURL prints the public URL of each storage path. No bucket access is
// needed.
func runURL(args []string) int {
	fs := flag.NewFlagSet("url", flag.ContinueOnError)

	configFile := fs.String("config", "", "YAML config file")
	baseURL := fs.String("base-url", "", "Public base URL of the bucket")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: filekit url [options] PATH...

Print the public URL of stored objects.

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

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{BaseURL: *baseURL})

	if cfg.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -base-url is required")
		return ExitInvalidArgs
	}

	for _, p := range paths {
		u, err := filekit.JoinURL(cfg.BaseURL, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		fmt.Fprintln(stdout, u)
	}
	return ExitSuccess
}
