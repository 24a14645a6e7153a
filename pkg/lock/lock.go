package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by Acquire when the context ends before the lock frees up.
var ErrNotAcquired = errors.New("lock_not_acquired")

// Locker is a lease-based mutual exclusion primitive keyed by string.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Acquire polls TryLock until the lock is held or ctx is done. The returned
// release func is safe to call once the caller's context has been cancelled.
func Acquire(ctx context.Context, l Locker, key string, ttl, retry time.Duration) (func(), error) {
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}

	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = l.Release(releaseCtx, key, token)
			}, nil
		}

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-timer.C:
		}
	}
}

// Do runs fn while holding key, releasing it afterwards.
func Do(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	release, err := Acquire(ctx, l, key, ttl, 0)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
