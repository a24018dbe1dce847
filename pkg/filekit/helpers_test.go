package filekit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newMemBackend(t *testing.T) *BucketBackend {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return NewBucketBackend(bucket)
}

// writeTempFile creates name (relative to a fresh temp dir) with content and
// returns it as a File.
func writeTempFile(t *testing.T, name, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	f, err := NewFile(path)
	require.NoError(t, err)
	return f
}

func put(t *testing.T, b Backend, path, content string) {
	t.Helper()
	require.NoError(t, b.Write(context.Background(), path, []byte(content)))
}

func read(t *testing.T, b Backend, path string) string {
	t.Helper()
	data, err := b.Read(context.Background(), path)
	require.NoError(t, err)
	return string(data)
}

// stubBackend wraps a real backend, counts calls and injects failures.
type stubBackend struct {
	Backend

	mu              sync.Mutex
	writes          map[string]int
	hasErr          error
	readErr         error
	listErr         error
	deleteErr       error
	writeStreamErrs []error // returned by successive WriteStream calls before delegating
	forceAbsent     bool    // Has always reports false
}

func newStub(inner Backend) *stubBackend {
	return &stubBackend{Backend: inner, writes: make(map[string]int)}
}

func (s *stubBackend) Has(ctx context.Context, path string) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	if s.forceAbsent && path != ShardIndexKey {
		return false, nil
	}
	return s.Backend.Has(ctx, path)
}

func (s *stubBackend) Read(ctx context.Context, path string) ([]byte, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.Backend.Read(ctx, path)
}

func (s *stubBackend) Write(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	s.writes[path]++
	s.mu.Unlock()
	return s.Backend.Write(ctx, path, data)
}

func (s *stubBackend) WriteStream(ctx context.Context, path string, r io.Reader) error {
	s.mu.Lock()
	if len(s.writeStreamErrs) > 0 {
		err := s.writeStreamErrs[0]
		s.writeStreamErrs = s.writeStreamErrs[1:]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.Backend.WriteStream(ctx, path, r)
}

func (s *stubBackend) Delete(ctx context.Context, path string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Backend.Delete(ctx, path)
}

func (s *stubBackend) ListContents(ctx context.Context, dir string) ([]Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Backend.ListContents(ctx, dir)
}

func (s *stubBackend) writeCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[path]
}

// sequenceNamer returns the given names in order and then repeats the last.
func sequenceNamer(names ...string) Namer {
	var mu sync.Mutex
	i := 0
	return NamerFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n := names[i]
		if i < len(names)-1 {
			i++
		}
		return n, nil
	})
}

// recordEvents subscribes to all four events and records "<event> <path>".
func recordEvents(s *Storage) func() []string {
	var mu sync.Mutex
	var seen []string
	for _, name := range []EventName{BeforeSave, AfterSave, BeforeDelete, AfterDelete} {
		s.On(name, func(_ context.Context, ev Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, string(ev.Name)+" "+ev.Path)
			return nil
		})
	}
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}
