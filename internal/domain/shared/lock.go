package shared

import (
	"context"
	"time"
)

// ErrLockNotAcquired is returned when a lock is still held by someone else
// after the locker's wait period.
var ErrLockNotAcquired = NewDomainError("LOCK_NOT_ACQUIRED", "Another operation on this resource is in progress, please retry")

// Locker serialises work on a named resource, across processes when backed
// by a shared store.
type Locker interface {
	// Acquire blocks until the lock is held or the wait period ends.
	// ttl bounds how long the lock survives a crashed holder.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	// Release frees the lock if it is still owned by this holder
	Release(ctx context.Context) error
}
