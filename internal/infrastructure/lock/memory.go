package lock

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerly/backend/internal/domain/shared"
)

// MemoryLocker implements shared.Locker inside one process.
// It is used when Redis is disabled and in tests.
type MemoryLocker struct {
	mu      sync.Mutex
	held    map[string]*memoryLock
	wait    time.Duration
	changed chan struct{}
}

// NewMemoryLocker creates a locker that waits up to wait for a busy lock
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		held:    make(map[string]*memoryLock),
		wait:    wait,
		changed: make(chan struct{}),
	}
}

type memoryLock struct {
	locker    *MemoryLocker
	key       string
	expiresAt time.Time
}

// Acquire implements shared.Locker
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()
		current, busy := l.held[key]
		if !busy || time.Now().After(current.expiresAt) {
			lk := &memoryLock{locker: l, key: key, expiresAt: time.Now().Add(ttl)}
			l.held[key] = lk
			l.mu.Unlock()
			return lk, nil
		}
		changed := l.changed
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, shared.ErrLockNotAcquired
		case <-changed:
		case <-time.After(time.Until(current.expiresAt)):
		}
	}
}

func (lk *memoryLock) Release(ctx context.Context) error {
	l := lk.locker
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[lk.key] == lk {
		delete(l.held, lk.key)
		close(l.changed)
		l.changed = make(chan struct{})
	}
	return nil
}

var _ shared.Locker = (*MemoryLocker)(nil)
