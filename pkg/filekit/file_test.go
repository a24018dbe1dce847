package filekit

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameParts(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		baseName string
	}{
		{name: "photo.jpg", ext: "jpg", baseName: "photo"},
		{name: "archive.tar.gz", ext: "gz", baseName: "archive.tar"},
		{name: "README", ext: "", baseName: "README"},
		{name: ".env", ext: "env", baseName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := writeTempFile(t, tt.name, "x")
			assert.Equal(t, tt.name, f.Name())
			assert.Equal(t, tt.ext, f.Extension())
			assert.Equal(t, tt.baseName, f.BaseName())
		})
	}
}

func TestFileOpenAndSize(t *testing.T) {
	f := writeTempFile(t, "data.bin", "hello world")
	assert.Equal(t, int64(11), f.Size())
	assert.True(t, filepath.IsAbs(f.Path()))
	assert.Equal(t, f.Path(), f.String())

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestNewFileRejectsInvalidSources(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = NewFile(dir)
	assert.Error(t, err)
}
