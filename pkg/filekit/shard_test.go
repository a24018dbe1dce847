package filekit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardTrackerInitialisesIndexOnce(t *testing.T) {
	ctx := context.Background()
	stub := newStub(newMemBackend(t))
	tracker := NewShardTracker(stub, nil, 10, nil)

	shard, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, shard)

	shard, err = tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, shard)

	assert.Equal(t, 1, stub.writeCount(ShardIndexKey))
	assert.Equal(t, "1", read(t, stub, ShardIndexKey))
}

func TestShardTrackerRollover(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend(t)
	put(t, backend, ShardIndexKey, "1")
	put(t, backend, "1/a", "")
	put(t, backend, "1/b", "")
	put(t, backend, "1/c", "")

	tracker := NewShardTracker(backend, nil, 2, nil)

	shard, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, shard)
	assert.Equal(t, "2", read(t, backend, ShardIndexKey))

	// the new shard is empty so it stays current
	shard, err = tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, shard)
}

func TestShardTrackerAtLimitDoesNotRollOver(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend(t)
	put(t, backend, ShardIndexKey, "1")
	put(t, backend, "1/a", "")
	put(t, backend, "1/b", "")

	tracker := NewShardTracker(backend, nil, 2, nil)

	shard, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, shard)
	assert.Equal(t, "1", read(t, backend, ShardIndexKey))
}

func TestShardTrackerCountsSubdirectoriesAsEntries(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend(t)
	put(t, backend, ShardIndexKey, "1")
	put(t, backend, "1/a", "")
	put(t, backend, "1/nested/x", "")
	put(t, backend, "1/nested/y", "")

	tracker := NewShardTracker(backend, nil, 1, nil)

	shard, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, shard)
}

func TestShardTrackerUnlimited(t *testing.T) {
	ctx := context.Background()
	stub := newStub(newMemBackend(t))
	put(t, stub.Backend, ShardIndexKey, "4")
	for i := 0; i < 20; i++ {
		put(t, stub.Backend, "4/"+strconv.Itoa(i), "")
	}
	stub.listErr = errors.New("listing must not be needed")

	tracker := NewShardTracker(stub, nil, Unlimited, nil)

	shard, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, shard)
	assert.Equal(t, 0, stub.writeCount(ShardIndexKey))
}

func TestShardTrackerToleratesWhitespace(t *testing.T) {
	backend := newMemBackend(t)
	put(t, backend, ShardIndexKey, " 7\n")

	shard, err := NewShardTracker(backend, nil, 10, nil).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, shard)
}

func TestShardTrackerCorruptIndex(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not a number", content: "abc"},
		{name: "empty", content: ""},
		{name: "zero", content: "0"},
		{name: "negative", content: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMemBackend(t)
			put(t, backend, ShardIndexKey, tt.content)

			_, err := NewShardTracker(backend, nil, 10, nil).Current(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptShardIndex)
			assert.Equal(t, KindBackend, KindOf(err))
			assert.Equal(t, tt.content, read(t, backend, ShardIndexKey))
		})
	}
}

func TestShardTrackerBackendErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *stubBackend)
	}{
		{name: "has", setup: func(s *stubBackend) { s.hasErr = errors.New("boom") }},
		{name: "read", setup: func(s *stubBackend) { s.readErr = errors.New("boom") }},
		{name: "list", setup: func(s *stubBackend) { s.listErr = errors.New("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub(newMemBackend(t))
			put(t, stub.Backend, ShardIndexKey, "1")
			tt.setup(stub)

			_, err := NewShardTracker(stub, nil, 10, nil).Current(context.Background())
			require.Error(t, err)
			assert.Equal(t, KindBackend, KindOf(err))
		})
	}
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("lock unavailable")
}

func TestShardTrackerLockFailure(t *testing.T) {
	stub := newStub(newMemBackend(t))
	_, err := NewShardTracker(stub, failingLocker{}, 10, nil).Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindBackend, KindOf(err))
	assert.Equal(t, 0, stub.writeCount(ShardIndexKey))
}

func TestShardTrackerConcurrentRollover(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend(t)
	put(t, backend, ShardIndexKey, "1")
	put(t, backend, "1/a", "")
	put(t, backend, "1/b", "")

	tracker := NewShardTracker(backend, NewMutexLocker(), 1, nil)

	var wg sync.WaitGroup
	shards := make([]int, 8)
	for i := range shards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shard, err := tracker.Current(ctx)
			assert.NoError(t, err)
			shards[i] = shard
		}(i)
	}
	wg.Wait()

	// shard 2 stays empty, so exactly one caller advances the index
	for _, s := range shards {
		assert.Equal(t, 2, s)
	}
	assert.Equal(t, "2", read(t, backend, ShardIndexKey))
}
