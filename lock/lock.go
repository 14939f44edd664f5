package lock

import "context"

// Locker provides mutual exclusion with context support.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	TryLock(ctx context.Context) (bool, error)
}

// WithLock acquires l, runs fn, and releases l regardless of fn's outcome.
// The Unlock error is only reported when fn itself succeeded, so a failure
// inside fn is never masked by a secondary unlock failure.
func WithLock(ctx context.Context, l Locker, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	err := fn()
	if unlockErr := l.Unlock(ctx); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

