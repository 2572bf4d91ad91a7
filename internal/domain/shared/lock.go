package shared

import "context"

// ReleaseFunc gives a held lock back
type ReleaseFunc func(ctx context.Context) error

// Locker serializes mutations of one aggregate across concurrent requests.
// Obtain waits until the key is held, the retry budget is spent or ctx is
// done; the last two fail with ErrLockNotObtained.
type Locker interface {
	Obtain(ctx context.Context, key string) (ReleaseFunc, error)
}
