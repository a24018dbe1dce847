package filekit

import (
	"context"
	"io"
)

// Backend is the set of capabilities filekit needs from an object store.
// Keys are slash-separated paths relative to the backend root.
type Backend interface {
	// Has reports whether an object exists at path.
	Has(ctx context.Context, path string) (bool, error)

	// Read returns the full contents of the object at path.
	// Returns an error wrapping ErrNotExist if it is missing.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, replacing any existing object.
	Write(ctx context.Context, path string, data []byte) error

	// WriteStream stores r at path only if nothing exists there yet.
	// Returns an error wrapping ErrExist if the path is taken.
	WriteStream(ctx context.Context, path string, r io.Reader) error

	// PutStream stores r at path, replacing any existing object.
	PutStream(ctx context.Context, path string, r io.Reader) error

	// Delete removes the object at path.
	// Returns an error wrapping ErrNotExist if it is missing.
	Delete(ctx context.Context, path string) error

	// ListContents returns the direct children of dir. Subdirectories are
	// reported once, with IsDir set.
	ListContents(ctx context.Context, dir string) ([]Entry, error)
}

// Entry is one item returned by Backend.ListContents.
type Entry struct {
	Path  string // full key, without a trailing slash for directories
	Size  int64
	IsDir bool
}
