package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "lock:"

// RedisLocker implements shared.Locker with bsm/redislock so that every
// instance of the service shares the same per-order locks
type RedisLocker struct {
	locker    *redislock.Client
	ttl       time.Duration
	retry     redislock.RetryStrategy
	keyPrefix string
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithLockTTL sets how long a lock lives if its holder never releases it
func WithLockTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLockRetry retries obtaining a held lock count times, backoff apart
func WithLockRetry(count int, backoff time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if count <= 0 {
			l.retry = redislock.NoRetry()
			return
		}
		l.retry = redislock.LimitRetry(redislock.LinearBackoff(backoff), count)
	}
}

// WithLockKeyPrefix namespaces lock keys
func WithLockKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.keyPrefix = prefix
	}
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client redis.UniversalClient, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		locker:    redislock.New(client),
		ttl:       10 * time.Second,
		retry:     redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
		keyPrefix: defaultLockPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Obtain acquires the lock for key
func (l *RedisLocker) Obtain(ctx context.Context, key string) (shared.ReleaseFunc, error) {
	lock, err := l.locker.Obtain(ctx, l.keyPrefix+key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// expired before release; someone else may hold it now
			return nil
		}
		return err
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
