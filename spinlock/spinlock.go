package spinlock

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/wippyai/liveness/errors"
)

// DefaultTimeout bounds lock acquisition for callers that do not pick
// their own budget. Critical sections guarded by this lock are short
// (slot pool bookkeeping, free-list mutation), so a miss on this budget
// means contention pathology, not normal load.
const DefaultTimeout = 100 * time.Millisecond

// ErrTimeout matches any lock acquisition timeout via errors.Is.
var ErrTimeout = errors.LockTimeout(errors.PhaseLock, DefaultTimeout)

// checkEvery is how many failed spins pass between deadline checks.
const checkEvery = 32

// Lock is a bounded-timeout test-and-set mutual exclusion primitive.
// The zero value is an unlocked Lock. It is not reentrant.
type Lock struct {
	state atomic.Uint32
}

// TryAcquire attempts to take the lock without spinning.
func (l *Lock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Acquire spins until the lock is taken or timeout elapses. A timeout
// is returned as an error and must be surfaced by the caller; the lock
// is not held in that case.
func (l *Lock) Acquire(timeout time.Duration) error {
	if l.TryAcquire() {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for spins := 1; ; spins++ {
		if l.state.CompareAndSwap(0, 1) {
			return nil
		}
		if spins%checkEvery == 0 && time.Now().After(deadline) {
			return errors.LockTimeout(errors.PhaseLock, timeout)
		}
		runtime.Gosched()
	}
}

// Release unlocks. Releasing a lock that is not held is a programming
// error and panics rather than corrupting the holder's critical section.
func (l *Lock) Release() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("spinlock: release of unheld lock")
	}
}
