package filekit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// BucketBackend implements Backend on top of a gocloud.dev/blob bucket, so
// any registered driver (mem://, file://, s3://, gs://, ...) can be used.
type BucketBackend struct {
	bucket *blob.Bucket
	owned  bool
}

// NewBucketBackend wraps an already opened bucket. Closing the backend does
// not close the bucket.
func NewBucketBackend(bucket *blob.Bucket) *BucketBackend {
	return &BucketBackend{bucket: bucket}
}

// OpenBucketBackend opens the bucket at url. The driver for the URL scheme
// must be registered by the caller with a blank import, for example
// _ "gocloud.dev/blob/s3blob".
func OpenBucketBackend(ctx context.Context, url string) (*BucketBackend, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("filekit: open bucket: %w", err)
	}
	return &BucketBackend{bucket: bucket, owned: true}, nil
}

// Bucket returns the underlying bucket handle.
func (b *BucketBackend) Bucket() *blob.Bucket {
	return b.bucket
}

// Close releases the bucket if it was opened by OpenBucketBackend.
func (b *BucketBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.bucket.Close()
}

func (b *BucketBackend) Has(ctx context.Context, path string) (bool, error) {
	ok, err := b.bucket.Exists(ctx, path)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", path, err)
	}
	return ok, nil
}

func (b *BucketBackend) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, path)
	if err != nil {
		return nil, mapBlobErr("read", path, err)
	}
	return data, nil
}

func (b *BucketBackend) Write(ctx context.Context, path string, data []byte) error {
	if err := b.bucket.WriteAll(ctx, path, data, nil); err != nil {
		return mapBlobErr("write", path, err)
	}
	return nil
}

// WriteStream checks for an existing object first and then asks the driver
// for a conditional write, so drivers without IfNotExist support still get
// create-only semantics in the single-writer case.
func (b *BucketBackend) WriteStream(ctx context.Context, path string, r io.Reader) error {
	exists, err := b.Has(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("write %s: %w", path, ErrExist)
	}
	return b.copyTo(ctx, "write", path, r, &blob.WriterOptions{IfNotExist: true})
}

func (b *BucketBackend) PutStream(ctx context.Context, path string, r io.Reader) error {
	return b.copyTo(ctx, "put", path, r, nil)
}

// copyTo streams r into a new object. The content type is sniffed by the
// writer from the first bytes. The object only becomes visible once Close
// succeeds; a failed copy cancels the write.
func (b *BucketBackend) copyTo(ctx context.Context, op, path string, r io.Reader, opts *blob.WriterOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.bucket.NewWriter(ctx, path, opts)
	if err != nil {
		return mapBlobErr(op, path, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		w.Close()
		return mapBlobErr(op, path, err)
	}
	if err := w.Close(); err != nil {
		return mapBlobErr(op, path, err)
	}
	return nil
}

func (b *BucketBackend) Delete(ctx context.Context, path string) error {
	if err := b.bucket.Delete(ctx, path); err != nil {
		return mapBlobErr("delete", path, err)
	}
	return nil
}

func (b *BucketBackend) ListContents(ctx context.Context, dir string) ([]Entry, error) {
	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}

	var entries []Entry
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, mapBlobErr("list", dir, err)
		}
		entries = append(entries, Entry{
			Path:  strings.TrimSuffix(obj.Key, "/"),
			Size:  obj.Size,
			IsDir: obj.IsDir,
		})
	}
	return entries, nil
}

// mapBlobErr translates driver error codes into filekit sentinels.
func mapBlobErr(op, path string, err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return fmt.Errorf("%s %s: %w: %v", op, path, ErrNotExist, err)
	case gcerrors.FailedPrecondition, gcerrors.AlreadyExists:
		return fmt.Errorf("%s %s: %w: %v", op, path, ErrExist, err)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}
