package filekit

import (
	"io"
	"log/slog"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Options configures a Storage.
type Options struct {
	MaxFilesPerShard  int    // >= 1 or Unlimited
	PreserveFileNames bool   // default filename policy for Save
	Overwrite         bool   // default overwrite policy for Save
	MaxAttempts       int    // allocation attempts per save
	BaseURL           string // prefix for public URLs
	Namer             Namer
	Locker            Locker
	Logger            *slog.Logger
}

// Option is a functional option for configuring a Storage.
type Option func(*Options)

// WithMaxFilesPerShard sets the number of entries a shard may hold before
// the next save rolls over to a new shard. Use Unlimited to disable rollover.
func WithMaxFilesPerShard(n int) Option {
	return func(o *Options) {
		o.MaxFilesPerShard = n
	}
}

// WithPreserveFileNames makes Save keep the source base name by default
// instead of generating a random one.
func WithPreserveFileNames(preserve bool) Option {
	return func(o *Options) {
		o.PreserveFileNames = preserve
	}
}

// WithOverwrite makes Save replace existing objects by default.
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// WithMaxAttempts bounds how many candidate paths a single save may try.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		o.MaxAttempts = n
	}
}

// WithBaseURL sets the prefix used by Storage.URL.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithNamer sets the random name generator.
func WithNamer(n Namer) Option {
	return func(o *Options) {
		o.Namer = n
	}
}

// WithLocker sets the lock guarding the shard index. Pass a distributed
// Locker when several processes share a backend.
func WithLocker(l Locker) Option {
	return func(o *Options) {
		o.Locker = l
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// SaveOptions are per-call overrides for Save and SaveAll.
type SaveOptions struct {
	PreserveFileName bool
	Overwrite        bool
}

// SaveOption is a functional option for a single save.
type SaveOption func(*SaveOptions)

// PreserveFileName keeps (true) or replaces (false) the source base name.
func PreserveFileName(preserve bool) SaveOption {
	return func(o *SaveOptions) {
		o.PreserveFileName = preserve
	}
}

// Overwrite replaces (true) or refuses to replace (false) an existing object.
func Overwrite(overwrite bool) SaveOption {
	return func(o *SaveOptions) {
		o.Overwrite = overwrite
	}
}
