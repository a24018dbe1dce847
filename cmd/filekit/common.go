package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/filekit/internal/config"
	"github.com/ligustah/filekit/pkg/filekit"
	"github.com/ligustah/filekit/pkg/redislock"
)

// boolFlagKeys maps boolean command flags to the config keys they override.
var boolFlagKeys = map[string]string{
	"preserve":  "preserve_file_names",
	"overwrite": "overwrite",
	"progress":  "progress",
}

// storageFlags are shared by every command that opens a bucket. Unset flags
// keep the zero value so Merge leaves the file and env settings alone;
// boolean flags given on the command line win even when false.
type storageFlags struct {
	fs         *flag.FlagSet
	configFile string
	verbose    bool
	override   config.Config
}

func (f *storageFlags) register(fs *flag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.configFile, "config", "", "YAML config file")
	fs.BoolVar(&f.verbose, "v", false, "Verbose logging")
	fs.StringVar(&f.override.Bucket, "bucket", "", "Bucket URL (mem://, file:///dir, s3://bucket, gs://bucket)")
	fs.IntVar(&f.override.MaxDirFiles, "max-dir-files", 0, "Entries per shard before rollover, -1 for unlimited (default 65535)")
	fs.StringVar(&f.override.Lock.RedisAddr, "redis-addr", "", "Redis address for the shard lock (default in-process lock)")
}

// load resolves the configuration: defaults, file, environment, flags.
func (f *storageFlags) load() (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeExplicit(f.override, f.explicit())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// explicit returns the config keys of boolean flags set on the command line.
func (f *storageFlags) explicit() map[string]bool {
	set := make(map[string]bool)
	if f.fs == nil {
		return set
	}
	f.fs.Visit(func(fl *flag.Flag) {
		if key, ok := boolFlagKeys[fl.Name]; ok {
			set[key] = true
		}
	})
	return set
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[filekit] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openStorage opens the configured bucket and builds a Storage on it. The
// returned close function releases the bucket and lock client.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*filekit.Storage, func(), error) {
	backend, err := filekit.OpenBucketBackend(ctx, cfg.Bucket)
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.StorageOptions()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	opts = append(opts, filekit.WithLogger(logger))

	var locker *redislock.Locker
	if cfg.Lock.RedisAddr != "" {
		locker, err = redislock.Open(ctx, redislock.Config{
			Addr:          cfg.Lock.RedisAddr,
			KeyPrefix:     cfg.LockKeyPrefix(),
			TTL:           cfg.Lock.TTL,
			RetryInterval: cfg.Lock.RetryInterval,
		}, redislock.WithLogger(logger))
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		opts = append(opts, filekit.WithLocker(locker))
	}

	store, err := filekit.New(backend, opts...)
	if err != nil {
		backend.Close()
		if locker != nil {
			locker.Close()
		}
		return nil, nil, err
	}

	return store, func() {
		if locker != nil {
			locker.Close()
		}
		backend.Close()
	}, nil
}
