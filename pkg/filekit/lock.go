package filekit

import (
	"context"
	"sync"
)

// Locker provides mutual exclusion around the shard index read-modify-write.
// Lock blocks until the lock for key is held or ctx is done, and returns a
// function that releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MutexLocker is an in-process Locker. It only serialises callers that share
// the same MutexLocker; use a distributed Locker when several processes
// write to the same backend.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMutexLocker creates an in-process locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]chan struct{})}
}

// Lock acquires the lock for key.
func (l *MutexLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]chan struct{})
	}
	ch, ok := l.locks[key]
	if !ok {
		// buffered channel of size 1 used as a context-aware mutex
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
