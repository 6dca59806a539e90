package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// The worker pool uses it to lease one simulator instance to a single process at a time.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is canceled.
	// The lock expires after ttl if it is never released.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
	// TryLock makes a single attempt and reports whether the lock was acquired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error)
}
