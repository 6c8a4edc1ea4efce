// Package lock serializes timetable generation per school.
package lock

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Release frees a held lock. Calling it more than once is a no-op.
type Release func()

// Locker grants exclusive access to a key for the duration of one generation.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// SchoolKey is the lock key for a school.
func SchoolKey(schoolID string) string {
	return "timetable:lock:" + schoolID
}

// LocalLocker is an in-process locker keyed by string.
type LocalLocker struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates a locker; a non-positive timeout waits until ctx is done.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{timeout: timeout, slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Acquire blocks until the key is free, the timeout passes, or ctx is cancelled.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	ch := l.slot(key)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrLockTimeout.Code, appErrors.ErrLockTimeout.Status, appErrors.ErrLockTimeout.Message)
	}
}
