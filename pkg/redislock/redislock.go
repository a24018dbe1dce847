package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix     = "filekit:lock:"
	DefaultTTL           = 10 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes KEYS[1] only if it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config configures a Locker.
type Config struct {
	Addr          string
	Password      string
	DB            int
	KeyPrefix     string
	TTL           time.Duration
	RetryInterval time.Duration
}

// Locker is a distributed lock backed by a Redis client.
type Locker struct {
	client        redis.UniversalClient
	owned         bool
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// Option is a functional option for configuring a Locker.
type Option func(*Locker)

// WithKeyPrefix sets the prefix prepended to every lock key.
func WithKeyPrefix(prefix string) Option {
	return func(l *Locker) {
		l.prefix = prefix
	}
}

// WithTTL sets how long a lock is held before Redis expires it.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		l.ttl = ttl
	}
}

// WithRetryInterval sets the delay between acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) {
		l.retryInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		l.logger = logger
	}
}

// New creates a Locker using an existing client. Close does not close it.
func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{
		client:        client,
		prefix:        DefaultKeyPrefix,
		ttl:           DefaultTTL,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Open connects to the Redis server described by cfg and verifies the
// connection with PING.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Locker, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redislock: address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redislock: ping %s: %w", cfg.Addr, err)
	}

	if cfg.KeyPrefix != "" {
		opts = append([]Option{WithKeyPrefix(cfg.KeyPrefix)}, opts...)
	}
	if cfg.TTL > 0 {
		opts = append([]Option{WithTTL(cfg.TTL)}, opts...)
	}
	if cfg.RetryInterval > 0 {
		opts = append([]Option{WithRetryInterval(cfg.RetryInterval)}, opts...)
	}

	l := New(client, opts...)
	l.owned = true
	return l, nil
}

// Close closes the client if it was opened by Open.
func (l *Locker) Close() error {
	if !l.owned {
		return nil
	}
	return l.client.Close()
}

// Lock blocks until the lock for key is acquired or ctx is done. The
// returned function releases the lock; calling it more than once is a no-op.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redislock: acquire %s: %w", redisKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.release(redisKey, token)
		})
	}, nil
}

func (l *Locker) release(key, token string) {
	// release must not depend on the caller's context, which may already be
	// cancelled
	ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		l.logger.Warn("release lock failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if n == 0 {
		l.logger.Warn("lock expired before release", slog.String("key", key), slog.Duration("ttl", l.ttl))
	}
}
