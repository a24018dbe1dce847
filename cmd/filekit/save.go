package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	fkhttp "github.com/ligustah/filekit/internal/http"
	"github.com/ligustah/filekit/internal/metrics"
	"github.com/ligustah/filekit/internal/progress"
	"github.com/ligustah/filekit/pkg/filekit"
)

// errSource marks inputs that could not be read or downloaded.
var errSource = errors.New("source not accessible")

// runSave stores local files and HTTP URLs and prints one storage path per
// stored input, in input order.
func runSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)

	var sf storageFlags
	sf.register(fs)
	preserve := fs.Bool("preserve", false, "Keep the source base name instead of generating one")
	overwrite := fs.Bool("overwrite", false, "Replace existing objects")
	namer := fs.String("namer", "", "Name generator: random or uuid (default random)")
	baseURL := fs.String("base-url", "", "Print public URLs under this base next to the paths")
	showProgress := fs.Bool("progress", false, "Show progress output")
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: filekit save [options] FILE|URL...

Store files in sharded directories of a bucket. HTTP(S) URLs are downloaded
first. Prints one stored path per saved input.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one FILE or URL is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	sf.override.PreserveFileNames = *preserve
	sf.override.Overwrite = *overwrite
	sf.override.Namer = *namer
	sf.override.BaseURL = *baseURL
	sf.override.Progress = *showProgress

	cfg, err := sf.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	logger := newLogger(sf.verbose)

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := openStorage(ctx, cfg, logger)
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

	tmpDir, err := os.MkdirTemp("", "filekit-fetch-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer os.RemoveAll(tmpDir)

	client := fkhttp.NewClient(fkhttp.Options{
		MaxIdleConnsPerHost: 4,
		Timeout:             cfg.Fetch.Timeout,
		RetryAttempts:       cfg.Fetch.Retry.Attempts,
		RetryBackoff:        cfg.Fetch.Retry.Backoff,
		RetryMaxBackoff:     cfg.Fetch.Retry.MaxBackoff,
	})

	// Resolve inputs to files. Unreadable inputs become failed results
	// without reaching the storage.
	results := make([]filekit.SaveResult, len(inputs))
	var files []*filekit.File
	var index []int
	var totalSize int64
	for i, src := range inputs {
		local := src
		if fkhttp.IsRemote(src) {
			fetched, err := fetch(ctx, client, tmpDir, i, src)
			if err != nil {
				results[i].Err = fmt.Errorf("%w: %s: %v", errSource, src, err)
				continue
			}
			logger.Debug("fetched source",
				slog.String("url", src),
				slog.String("file", fetched.Path),
				slog.Int64("size", fetched.Size),
				slog.String("content_type", fetched.ContentType),
				slog.String("etag", fetched.ETag))
			local = fetched.Path
		}
		f, err := filekit.NewFile(local)
		if err != nil {
			results[i].Err = fmt.Errorf("%w: %v", errSource, err)
			continue
		}
		files = append(files, f)
		index = append(index, i)
		totalSize += f.Size()
	}

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			Operation:      "Saving",
			TotalFiles:     len(inputs),
			TotalSize:      totalSize,
			UpdateInterval: time.Second,
		})
		reporter.Observe(store)
		for _, r := range results {
			if r.Err != nil {
				reporter.FileFailed()
			}
		}
		reporter.Start()
	}

	saved := store.SaveAll(ctx, files)
	for j, r := range saved {
		results[index[j]] = r
		if r.Err != nil && reporter != nil {
			reporter.FileFailed()
		}
	}

	if reporter != nil {
		reporter.Stop()
	}

	var succeeded, sourceFailures int
	for i, r := range results {
		if r.Err != nil {
			if errors.Is(r.Err, errSource) || filekit.KindOf(r.Err) == filekit.KindSource {
				sourceFailures++
			}
			fmt.Fprintf(os.Stderr, "[filekit] Failed: %s: %v\n", inputs[i], r.Err)
			continue
		}
		succeeded++
		if cfg.BaseURL != "" {
			u, err := filekit.JoinURL(cfg.BaseURL, r.Path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitInvalidArgs
			}
			fmt.Fprintf(stdout, "%s\t%s\n", r.Path, u)
		} else {
			fmt.Fprintln(stdout, r.Path)
		}
	}

	if m != nil {
		m.RecordSaveResults(results)
		if err := m.WriteToTextfile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	failed := len(inputs) - succeeded
	fmt.Fprintf(os.Stderr, "[filekit] Saved %d of %d files to %s\n", succeeded, len(inputs), cfg.Bucket)

	switch {
	case failed == 0:
		return ExitSuccess
	case ctx.Err() != nil:
		return ExitGeneralError
	case succeeded > 0:
		return ExitPartialFailure
	case sourceFailures == failed:
		return ExitSourceNotAccess
	default:
		return ExitStorageError
	}
}

// fetch downloads input i into its own directory under dir so inputs with
// equal remote names do not clash.
func fetch(ctx context.Context, client *fkhttp.Client, dir string, i int, src string) (*fkhttp.Fetched, error) {
	sub := filepath.Join(dir, strconv.Itoa(i))
	if err := os.Mkdir(sub, 0o755); err != nil {
		return nil, err
	}
	return client.Fetch(ctx, src, sub)
}
