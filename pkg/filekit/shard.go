package filekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// ShardIndexKey is the backend key holding the current shard index.
	ShardIndexKey = ".dirindex"

	// Unlimited disables shard rollover.
	Unlimited = -1

	// DefaultMaxFilesPerShard is the FAT32 per-directory entry limit.
	DefaultMaxFilesPerShard = 65535
)

// ShardTracker hands out the shard index for the next save and rolls over
// to a new shard once the current one holds more than maxFiles entries.
//
// The index is re-read from the backend on every call. Rollover is checked
// lazily: the save that pushes a shard past the limit still lands in that
// shard, and the next call moves on. A shard can therefore hold up to
// maxFiles+1 entries.
type ShardTracker struct {
	backend  Backend
	locker   Locker
	maxFiles int
	logger   *slog.Logger
}

// NewShardTracker creates a tracker. maxFiles is either >= 1 or Unlimited.
// A nil locker means an in-process MutexLocker.
func NewShardTracker(backend Backend, locker Locker, maxFiles int, logger *slog.Logger) *ShardTracker {
	if locker == nil {
		locker = NewMutexLocker()
	}
	if logger == nil {
		logger = discardLogger
	}
	return &ShardTracker{
		backend:  backend,
		locker:   locker,
		maxFiles: maxFiles,
		logger:   logger,
	}
}

// Current returns the shard index to use for the next save, initialising or
// advancing the persisted index as needed.
func (t *ShardTracker) Current(ctx context.Context) (int, error) {
	unlock, err := t.locker.Lock(ctx, ShardIndexKey)
	if err != nil {
		return 0, &Error{Kind: KindBackend, Op: "shard", Path: ShardIndexKey, Err: fmt.Errorf("lock: %w", err)}
	}
	defer unlock()

	shard, err := t.current(ctx)
	if err != nil {
		return 0, wrapErr(KindBackend, "shard", ShardIndexKey, err)
	}
	return shard, nil
}

func (t *ShardTracker) current(ctx context.Context) (int, error) {
	exists, err := t.backend.Has(ctx, ShardIndexKey)
	if err != nil {
		return 0, err
	}
	if !exists {
		if err := t.persist(ctx, 1); err != nil {
			return 0, err
		}
		t.logger.Info("initialised shard index", slog.Int("shard", 1))
		return 1, nil
	}

	shard, err := t.read(ctx)
	if err != nil {
		return 0, err
	}

	if t.maxFiles == Unlimited {
		return shard, nil
	}

	entries, err := t.backend.ListContents(ctx, strconv.Itoa(shard))
	if err != nil {
		return 0, fmt.Errorf("count shard %d: %w", shard, err)
	}
	if len(entries) <= t.maxFiles {
		return shard, nil
	}

	next := shard + 1
	if err := t.persist(ctx, next); err != nil {
		return 0, err
	}
	t.logger.Info("shard rolled over",
		slog.Int("from", shard),
		slog.Int("to", next),
		slog.Int("entries", len(entries)),
		slog.Int("max_files", t.maxFiles))
	return next, nil
}

func (t *ShardTracker) read(ctx context.Context) (int, error) {
	data, err := t.backend.Read(ctx, ShardIndexKey)
	if err != nil {
		return 0, fmt.Errorf("read shard index: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	shard, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrCorruptShardIndex, raw)
	}
	if shard < 1 {
		return 0, fmt.Errorf("%w: %d is not positive", ErrCorruptShardIndex, shard)
	}
	return shard, nil
}

func (t *ShardTracker) persist(ctx context.Context, shard int) error {
	if err := t.backend.Write(ctx, ShardIndexKey, []byte(strconv.Itoa(shard))); err != nil {
		return fmt.Errorf("write shard index: %w", err)
	}
	return nil
}

// validMaxFiles reports whether n is an accepted per-shard limit.
func validMaxFiles(n int) error {
	if n == Unlimited || n >= 1 {
		return nil
	}
	return errors.New("filekit: max files per shard must be >= 1 or Unlimited")
}
