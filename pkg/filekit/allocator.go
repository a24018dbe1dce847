package filekit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// DefaultMaxAttempts bounds the number of candidate names tried per save.
const DefaultMaxAttempts = 10

// PathAllocator computes storage paths of the form "<shard>/<filename>".
type PathAllocator struct {
	backend     Backend
	namer       Namer
	maxAttempts int
	logger      *slog.Logger
}

// NewPathAllocator creates an allocator. A nil namer means RandomNamer and
// maxAttempts <= 0 means DefaultMaxAttempts.
func NewPathAllocator(backend Backend, namer Namer, maxAttempts int, logger *slog.Logger) *PathAllocator {
	if namer == nil {
		namer = RandomNamer{}
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = discardLogger
	}
	return &PathAllocator{
		backend:     backend,
		namer:       namer,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Allocate returns a path for file inside shard.
//
// With preserve set the file's base name is used as-is and no existence check
// is made. Otherwise random names are tried until one is free, up to the
// attempt limit, after which a KindAllocation error is returned.
func (a *PathAllocator) Allocate(ctx context.Context, file *File, shard int, preserve bool) (string, error) {
	if preserve {
		return shardPath(shard, file.BaseName()), nil
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		candidate, err := a.candidate(file, shard)
		if err != nil {
			return "", &Error{Kind: KindAllocation, Op: "allocate", Err: err}
		}

		taken, err := a.backend.Has(ctx, candidate)
		if err != nil {
			return "", &Error{Kind: KindBackend, Op: "allocate", Path: candidate, Err: err}
		}
		if !taken {
			return candidate, nil
		}
		a.logger.Debug("candidate path taken",
			slog.String("path", candidate),
			slog.Int("attempt", attempt))
	}

	return "", &Error{
		Kind: KindAllocation,
		Op:   "allocate",
		Err:  fmt.Errorf("%w after %d attempts in shard %d", ErrAllocationExhausted, a.maxAttempts, shard),
	}
}

// candidate builds "<shard>/<random>.<ext>".
func (a *PathAllocator) candidate(file *File, shard int) (string, error) {
	name, err := a.namer.Name()
	if err != nil {
		return "", err
	}
	if ext := file.Extension(); ext != "" {
		name += "." + ext
	}
	return shardPath(shard, name), nil
}

func shardPath(shard int, filename string) string {
	return strconv.Itoa(shard) + "/" + filename
}
