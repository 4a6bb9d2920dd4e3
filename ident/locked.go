package ident

import (
	"time"

	"github.com/wippyai/liveness/spinlock"
)

// Locked pairs an Allocator with its associated spin lock and acquires
// it around every operation. Lock acquisition is bounded: operations
// fail with a lock timeout error instead of blocking indefinitely.
//
// Callers composing several allocator calls into one critical section
// can take Lock themselves and operate on Unsafe directly.
type Locked[T Integer] struct {
	alloc   *Allocator[T]
	lock    spinlock.Lock
	timeout time.Duration
}

// NewLocked creates a thread-safe allocator for [min, max].
func NewLocked[T Integer](min, max T) *Locked[T] {
	return &Locked[T]{
		alloc:   New(min, max),
		timeout: spinlock.DefaultTimeout,
	}
}

// SetLockTimeout overrides the acquisition budget for subsequent calls.
func (l *Locked[T]) SetLockTimeout(d time.Duration) {
	l.timeout = d
}

// Fetch issues an id under the lock.
func (l *Locked[T]) Fetch() (T, error) {
	if err := l.lock.Acquire(l.timeout); err != nil {
		var zero T
		return zero, err
	}
	defer l.lock.Release()
	return l.alloc.Fetch()
}

// Return reclaims an id under the lock.
func (l *Locked[T]) Return(id T) error {
	if err := l.lock.Acquire(l.timeout); err != nil {
		return err
	}
	defer l.lock.Release()
	return l.alloc.Return(id)
}

// TryClaim claims a specific id under the lock. The error is non-nil
// only for lock timeouts; an unclaimable id is (false, nil).
func (l *Locked[T]) TryClaim(id T) (bool, error) {
	if err := l.lock.Acquire(l.timeout); err != nil {
		return false, err
	}
	defer l.lock.Release()
	return l.alloc.TryClaim(id), nil
}

// Reset clears the allocator under the lock.
func (l *Locked[T]) Reset() error {
	if err := l.lock.Acquire(l.timeout); err != nil {
		return err
	}
	defer l.lock.Release()
	l.alloc.Reset()
	return nil
}

// IsClaimed reports whether id is currently issued, under the lock.
func (l *Locked[T]) IsClaimed(id T) (bool, error) {
	if err := l.lock.Acquire(l.timeout); err != nil {
		return false, err
	}
	defer l.lock.Release()
	return l.alloc.IsClaimed(id), nil
}

// Unsafe returns the underlying allocator. The caller must hold Lock
// around any use of it.
func (l *Locked[T]) Unsafe() *Allocator[T] {
	return l.alloc
}

// Lock returns the allocator's associated lock object.
func (l *Locked[T]) Lock() *spinlock.Lock {
	return &l.lock
}
