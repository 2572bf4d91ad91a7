package cache

import (
	"context"
	"sync"

	"github.com/fabtrack/backend/internal/domain/shared"
)

// InMemoryLocker implements shared.Locker with one semaphore per key.
// Locks are local to the process; use RedisLocker when more than one
// instance serves the same database.
type InMemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	sem  chan struct{}
	refs int
}

// NewInMemoryLocker creates a new in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{slots: make(map[string]*lockSlot)}
}

// Obtain waits for the key until ctx is done
func (l *InMemoryLocker) Obtain(ctx context.Context, key string) (shared.ReleaseFunc, error) {
	slot := l.acquireSlot(key)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key, slot)
		return nil, shared.ErrLockNotObtained
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-slot.sem
			l.releaseSlot(key, slot)
		})
		return nil
	}, nil
}

// Held reports how many keys currently have holders or waiters
func (l *InMemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *InMemoryLocker) acquireSlot(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *InMemoryLocker) releaseSlot(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

var _ shared.Locker = (*InMemoryLocker)(nil)
