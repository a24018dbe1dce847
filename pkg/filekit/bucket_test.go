package filekit

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/fileblob"
)

func TestBucketBackendWriteStreamIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)

	require.NoError(t, b.WriteStream(ctx, "1/a.txt", strings.NewReader("first")))

	err := b.WriteStream(ctx, "1/a.txt", strings.NewReader("second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExist)
	assert.Equal(t, "first", read(t, b, "1/a.txt"))
}

func TestBucketBackendPutStreamReplaces(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)

	require.NoError(t, b.PutStream(ctx, "1/a.txt", strings.NewReader("first")))
	require.NoError(t, b.PutStream(ctx, "1/a.txt", strings.NewReader("second")))
	assert.Equal(t, "second", read(t, b, "1/a.txt"))
}

func TestBucketBackendStreamsSniffContentType(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)

	require.NoError(t, b.WriteStream(ctx, "1/a.txt", strings.NewReader("plain text body")))
	require.NoError(t, b.PutStream(ctx, "1/b.html", strings.NewReader("<html><body>hi</body></html>")))

	attrs, err := b.Bucket().Attributes(ctx, "1/a.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(attrs.ContentType, "text/plain"), attrs.ContentType)

	attrs, err = b.Bucket().Attributes(ctx, "1/b.html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(attrs.ContentType, "text/html"), attrs.ContentType)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestBucketBackendStreamFailureLeavesNoObject(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)

	err := b.WriteStream(ctx, "1/a.txt", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	ok, err := b.Has(ctx, "1/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveOnMemBucketReturnsShardedPath(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)
	store, err := New(b)
	require.NoError(t, err)

	path, err := store.Save(ctx, writeTempFile(t, "a.jpg", "\xff\xd8\xff\xe0jpeg"))
	require.NoError(t, err)
	assert.Regexp(t, `^1/[A-Za-z0-9_-]{32}\.jpg$`, path)
	assert.Equal(t, "\xff\xd8\xff\xe0jpeg", read(t, b, path))
}

func TestBucketBackendMissingObjects(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)

	ok, err := b.Has(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.Read(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotExist)

	err = b.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestBucketBackendListContents(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend(t)
	put(t, b, ShardIndexKey, "1")
	put(t, b, "1/a.jpg", "aaa")
	put(t, b, "1/b.jpg", "b")
	put(t, b, "1/sub/c.jpg", "c")
	put(t, b, "10/d.jpg", "d")

	entries, err := b.ListContents(ctx, "1")
	require.NoError(t, err)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	assert.Equal(t, []Entry{
		{Path: "1/a.jpg", Size: 3},
		{Path: "1/b.jpg", Size: 1},
		{Path: "1/sub", IsDir: true},
	}, entries)

	// a trailing slash names the same directory
	again, err := b.ListContents(ctx, "1/")
	require.NoError(t, err)
	assert.Len(t, again, 3)

	empty, err := b.ListContents(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOpenBucketBackendFileDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenBucketBackend(ctx, "file://"+dir)
	require.NoError(t, err)
	defer b.Close()

	store, err := New(b, WithNamer(sequenceNamer("n")))
	require.NoError(t, err)

	path, err := store.Save(ctx, writeTempFile(t, "doc.txt", "on disk"))
	require.NoError(t, err)
	assert.Equal(t, "1/n.txt", path)
	assert.Equal(t, "on disk", read(t, b, path))
	assert.Equal(t, "1", read(t, b, ShardIndexKey))
}

func TestOpenBucketBackendUnknownScheme(t *testing.T) {
	_, err := OpenBucketBackend(context.Background(), "nosuchscheme://bucket")
	assert.Error(t, err)
}
