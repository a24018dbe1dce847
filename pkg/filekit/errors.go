package filekit

import (
	"errors"
	"fmt"
)

// Sentinel errors. Backends wrap ErrExist and ErrNotExist; the Storage
// facade wraps all of them in an *Error carrying a Kind.
var (
	// ErrExist is returned by Backend.WriteStream when the key is taken.
	ErrExist = errors.New("filekit: object already exists")

	// ErrNotExist is returned when an object is missing.
	ErrNotExist = errors.New("filekit: object does not exist")

	// ErrAllocationExhausted is returned when no free path was found within
	// the configured number of attempts.
	ErrAllocationExhausted = errors.New("filekit: no free path found")

	// ErrCorruptShardIndex is returned when the persisted shard index is not
	// a positive decimal integer.
	ErrCorruptShardIndex = errors.New("filekit: corrupt shard index")
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package.
	KindUnknown Kind = iota
	// KindBackend means a backend call failed (connectivity, permissions, quota).
	KindBackend
	// KindAllocation means no free storage path could be found.
	KindAllocation
	// KindObserver means an event observer returned an error.
	KindObserver
	// KindDeclined means the backend was reached but refused the operation,
	// e.g. the target already exists or the object to delete is missing.
	KindDeclined
	// KindSource means the local file being saved could not be read.
	KindSource
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindAllocation:
		return "allocation"
	case KindObserver:
		return "observer"
	case KindDeclined:
		return "declined"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Error describes a failed storage operation.
//
// Use errors.As to extract it, or KindOf for the classification only.
type Error struct {
	Kind Kind   // failure classification
	Op   string // "save", "delete", "allocate", "shard", ...
	Path string // storage path involved, if known
	Err  error  // underlying error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("filekit: %s %s (%s): %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("filekit: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsDeclined reports whether err means the backend refused the operation
// rather than failing to perform it.
func IsDeclined(err error) bool {
	return KindOf(err) == KindDeclined
}

func wrapErr(kind Kind, op, path string, err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
