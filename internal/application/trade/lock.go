package trade

import (
	"context"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const releaseTimeout = 5 * time.Second

// OrderLockKey returns the lock key guarding one order
func OrderLockKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// LockOrder obtains the per-order lock. The returned func releases it and
// must be called once the mutation has been persisted or abandoned.
func LockOrder(ctx context.Context, locker shared.Locker, orderID uuid.UUID) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, err := locker.Obtain(ctx, OrderLockKey(orderID))
	if err != nil {
		return nil, err
	}
	return func() {
		// release even when the request context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logger.L(ctx).Warn("Failed to release order lock",
				zap.String("lock_key", OrderLockKey(orderID)),
				zap.Error(err),
			)
		}
	}, nil
}
