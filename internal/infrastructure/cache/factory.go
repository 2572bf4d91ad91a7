package cache

import (
	"context"
	"fmt"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockerFactory builds the configured shared.Locker
type LockerFactory struct {
	lockConfig  config.LockConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
	client      *redis.Client
}

// LockerFactoryOption is a functional option for configuring the factory
type LockerFactoryOption func(*LockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.logger = logger
	}
}

// WithRedisClient reuses an existing client instead of dialing one
func WithRedisClient(client *redis.Client) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.client = client
	}
}

// NewLockerFactory creates a new factory
func NewLockerFactory(lockCfg config.LockConfig, redisCfg config.RedisConfig, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{
		lockConfig:  lockCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the locker for the configured backend together with a
// closer for any connection it opened
func (f *LockerFactory) Create(ctx context.Context) (shared.Locker, func() error, error) {
	noop := func() error { return nil }

	switch f.lockConfig.Backend {
	case config.LockBackendRedis:
		client := f.client
		closer := noop
		if client == nil {
			var err error
			if client, err = NewRedisClient(ctx, f.redisConfig); err != nil {
				return nil, nil, fmt.Errorf("redis lock backend: %w", err)
			}
			closer = client.Close
		}
		f.logger.Info("Using Redis order locks", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisLocker(client,
			WithLockTTL(f.lockConfig.TTL),
			WithLockRetry(f.lockConfig.RetryCount, f.lockConfig.RetryBackoff),
		), closer, nil
	case config.LockBackendMemory, "":
		f.logger.Info("Using in-process order locks")
		return NewInMemoryLocker(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", f.lockConfig.Backend)
	}
}
