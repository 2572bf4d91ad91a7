package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisForTest returns a client for FAB_TEST_REDIS_ADDR (default
// localhost:6379) or skips the test when nothing answers there
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("FAB_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	locker := NewRedisLocker(client,
		WithLockKeyPrefix(prefix),
		WithLockTTL(2*time.Second),
		WithLockRetry(0, 0),
	)

	release, err := locker.Obtain(ctx, "order-1")
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "order-1")
	assert.ErrorIs(t, err, shared.ErrLockNotObtained)

	other, err := locker.Obtain(ctx, "order-2")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Obtain(ctx, "order-1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLockerFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		locker, closer, err := NewLockerFactory(config.LockConfig{Backend: config.LockBackendMemory}, config.RedisConfig{}).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLocker{}, locker)
		assert.NoError(t, closer())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := NewLockerFactory(config.LockConfig{Backend: "etcd"}, config.RedisConfig{}).Create(ctx)
		assert.Error(t, err)
	})

	t.Run("redis backend with shared client", func(t *testing.T) {
		client := redisForTest(t)
		locker, closer, err := NewLockerFactory(
			config.LockConfig{Backend: config.LockBackendRedis, TTL: time.Second},
			config.RedisConfig{},
			WithRedisClient(client),
		).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &RedisLocker{}, locker)
		assert.NoError(t, closer())
	})
}
