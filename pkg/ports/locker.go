package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker defines the interface for build directory concurrency control.
// Two runs sharing a build directory would delete each other's artifacts.
type Locker interface {
	// Lock attempts to acquire a lock for the given key (e.g., the build directory path).
	// It blocks until the lock is acquired or the context is canceled.
	// The ttl bounds how long an abandoned lock survives (implementation specific).
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
