package filekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Storage saves files into sharded directories of a Backend and notifies
// observers around every save and delete. It is safe for concurrent use.
type Storage struct {
	backend   Backend
	opts      Options
	allocator *PathAllocator
	tracker   *ShardTracker
	bus       *Bus
	logger    *slog.Logger
}

// New creates a Storage on top of backend.
func New(backend Backend, options ...Option) (*Storage, error) {
	if backend == nil {
		return nil, errors.New("filekit: backend is required")
	}

	opts := Options{
		MaxFilesPerShard: DefaultMaxFilesPerShard,
		MaxAttempts:      DefaultMaxAttempts,
	}
	for _, opt := range options {
		opt(&opts)
	}

	if err := validMaxFiles(opts.MaxFilesPerShard); err != nil {
		return nil, err
	}
	if opts.MaxAttempts <= 0 {
		return nil, errors.New("filekit: max attempts must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger
	}
	if opts.Locker == nil {
		opts.Locker = NewMutexLocker()
	}
	if opts.Namer == nil {
		opts.Namer = RandomNamer{}
	}

	return &Storage{
		backend:   backend,
		opts:      opts,
		allocator: NewPathAllocator(backend, opts.Namer, opts.MaxAttempts, opts.Logger),
		tracker:   NewShardTracker(backend, opts.Locker, opts.MaxFilesPerShard, opts.Logger),
		bus:       NewBus(),
		logger:    opts.Logger,
	}, nil
}

// Backend returns the underlying backend.
func (s *Storage) Backend() Backend { return s.backend }

// On registers an observer for the named lifecycle event.
func (s *Storage) On(name EventName, obs Observer) {
	s.bus.On(name, obs)
}

// CurrentShard returns the shard the next save would use, rolling over if
// the current shard is full.
func (s *Storage) CurrentShard(ctx context.Context) (int, error) {
	return s.tracker.Current(ctx)
}

// Save stores file and returns its storage path.
//
// BeforeSave fires once the path is allocated; AfterSave fires only after
// the backend accepted the write. When the backend refuses the write (the
// path exists and overwrite is off) a KindDeclined error is returned and
// AfterSave does not fire. With generated names a refused write is retried
// under a new name.
//
// If an AfterSave observer fails, the object is already stored: its path is
// returned together with the KindObserver error.
func (s *Storage) Save(ctx context.Context, file *File, options ...SaveOption) (string, error) {
	so := SaveOptions{
		PreserveFileName: s.opts.PreserveFileNames,
		Overwrite:        s.opts.Overwrite,
	}
	for _, opt := range options {
		opt(&so)
	}

	shard, err := s.tracker.Current(ctx)
	if err != nil {
		return "", err
	}

	path, err := s.allocator.Allocate(ctx, file, shard, so.PreserveFileName)
	if err != nil {
		return "", err
	}

	if err := s.bus.Fire(ctx, Event{Name: BeforeSave, File: file, Path: path}); err != nil {
		return "", err
	}

	for attempt := 1; ; attempt++ {
		err = s.write(ctx, file, path, so.Overwrite)
		if err == nil {
			break
		}
		var fe *Error
		if errors.As(err, &fe) {
			return "", err
		}
		if !errors.Is(err, ErrExist) {
			return "", &Error{Kind: KindBackend, Op: "save", Path: path, Err: err}
		}
		if so.PreserveFileName || attempt >= s.opts.MaxAttempts {
			s.logger.Warn("save declined",
				slog.String("file", file.Path()),
				slog.String("path", path))
			return "", &Error{Kind: KindDeclined, Op: "save", Path: path, Err: err}
		}

		// lost a race for a generated name; pick another one
		s.logger.Debug("generated path taken during write, reallocating",
			slog.String("path", path),
			slog.Int("attempt", attempt))
		path, err = s.allocator.Allocate(ctx, file, shard, false)
		if err != nil {
			return "", err
		}
	}

	s.logger.Debug("file saved",
		slog.String("file", file.Path()),
		slog.String("path", path),
		slog.Int64("size", file.Size()))

	if err := s.bus.Fire(ctx, Event{Name: AfterSave, File: file, Path: path}); err != nil {
		return path, err
	}
	return path, nil
}

// write streams the source into the backend. The source is closed on every
// return path. A source that cannot be opened is reported as KindSource.
func (s *Storage) write(ctx context.Context, file *File, path string, overwrite bool) error {
	src, err := file.Open()
	if err != nil {
		return &Error{Kind: KindSource, Op: "save", Path: path, Err: fmt.Errorf("open source: %w", err)}
	}
	defer src.Close()

	if overwrite {
		return s.backend.PutStream(ctx, path, src)
	}
	return s.backend.WriteStream(ctx, path, src)
}

// SaveResult is the outcome of saving one file in a batch.
type SaveResult struct {
	File *File
	Path string
	Err  error
}

// SaveAll saves each file in order. A failure does not stop the batch; every
// outcome is reported at the same index as its input.
func (s *Storage) SaveAll(ctx context.Context, files []*File, options ...SaveOption) []SaveResult {
	results := make([]SaveResult, len(files))
	for i, f := range files {
		path, err := s.Save(ctx, f, options...)
		results[i] = SaveResult{File: f, Path: path, Err: err}
	}
	return results
}

// Delete removes the object at path.
//
// BeforeDelete fires first and may abort the delete by returning an error.
// AfterDelete fires only after the backend removed the object. Deleting a
// missing object returns a KindDeclined error wrapping ErrNotExist.
func (s *Storage) Delete(ctx context.Context, path string) error {
	if err := s.bus.Fire(ctx, Event{Name: BeforeDelete, Path: path}); err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, path); err != nil {
		kind := KindBackend
		if errors.Is(err, ErrNotExist) {
			kind = KindDeclined
		}
		return &Error{Kind: kind, Op: "delete", Path: path, Err: err}
	}

	s.logger.Debug("file deleted", slog.String("path", path))

	return s.bus.Fire(ctx, Event{Name: AfterDelete, Path: path})
}

// DeleteResult is the outcome of deleting one path in a batch.
type DeleteResult struct {
	Path string
	Err  error
}

// DeleteAll deletes each path in order. A failure does not stop the batch;
// every outcome is reported at the same index as its input.
func (s *Storage) DeleteAll(ctx context.Context, paths []string) []DeleteResult {
	results := make([]DeleteResult, len(paths))
	for i, p := range paths {
		results[i] = DeleteResult{Path: p, Err: s.Delete(ctx, p)}
	}
	return results
}

// URL returns the public URL of a stored object by joining the configured
// base URL and path.
func (s *Storage) URL(path string) (string, error) {
	if s.opts.BaseURL == "" {
		return "", errors.New("filekit: no base URL configured")
	}
	return JoinURL(s.opts.BaseURL, path)
}

// JoinURL appends a storage path to base.
func JoinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("filekit: parse base URL: %w", err)
	}
	return u.JoinPath(strings.TrimPrefix(path, "/")).String(), nil
}

// SaveErrors joins the errors of failed items, or returns nil if every save
// succeeded.
func SaveErrors(results []SaveResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.File, r.Err))
		}
	}
	return errors.Join(errs...)
}

// DeleteErrors joins the errors of failed items, or returns nil if every
// delete succeeded.
func DeleteErrors(results []DeleteResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
