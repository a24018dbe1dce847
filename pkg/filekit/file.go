package filekit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a disk-backed input waiting to be stored.
type File struct {
	path string
	size int64
}

// NewFile describes the regular file at path. The path is made absolute.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filekit: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("filekit: stat %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("filekit: %s is not a regular file", abs)
	}
	return &File{path: abs, size: info.Size()}, nil
}

// Path returns the absolute source path.
func (f *File) Path() string { return f.path }

// Name returns the file name including its extension.
func (f *File) Name() string { return filepath.Base(f.path) }

// Extension returns the extension without the leading dot, or "" if there
// is none.
func (f *File) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.path), ".")
}

// BaseName returns the file name without directory and extension.
func (f *File) BaseName() string {
	name := f.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Size returns the size in bytes observed when the File was created.
func (f *File) Size() int64 { return f.size }

// Open opens the source content for reading. The caller must close it.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

func (f *File) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.path
}
