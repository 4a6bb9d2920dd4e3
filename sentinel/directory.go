package sentinel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/liveness/errors"
	"github.com/wippyai/liveness/job"
)

// ErrWrongSentinelType matches lookups that found an entry of an
// unexpected resource kind.
var ErrWrongSentinelType = errors.WrongSentinelType(0, 0, 0)

// Directory maps resource identities to their sentinels. An identity is
// a uint64: either an allocator-issued id widened to 64 bits or a
// uintptr of the resource's stable storage. The directory owns its
// sentinels; a sentinel does not outlive its entry.
type Directory struct {
	mu      sync.RWMutex
	sched   job.Scheduler
	entries map[uint64]*Sentinel
}

// NewDirectory creates an empty directory combining dependencies
// through sched.
func NewDirectory(sched job.Scheduler) *Directory {
	return &Directory{
		sched:   sched,
		entries: make(map[uint64]*Sentinel),
	}
}

// GetOrCreate returns the sentinel for identity, constructing one
// wrapping resource on a miss. An existing entry with a different kind
// tag is reported as ErrWrongSentinelType and treated as a miss: the
// entry is replaced with a fresh sentinel, which is returned alongside
// the error so callers that choose to continue can. The displaced
// sentinel is drained before this returns, so its outstanding
// operations are never orphaned.
func (d *Directory) GetOrCreate(identity uint64, kind uint32, resource any) (*Sentinel, error) {
	d.mu.Lock()
	old, ok := d.entries[identity]
	if ok && old.kind == kind {
		d.mu.Unlock()
		return old, nil
	}
	fresh := newSentinel(d.sched, kind, resource)
	d.entries[identity] = fresh
	d.mu.Unlock()

	if !ok {
		return fresh, nil
	}

	Logger().Error("sentinel kind mismatch",
		zap.Uint64("identity", identity),
		zap.Uint32("want", kind),
		zap.Uint32("got", old.kind))

	// Blocking drain happens outside the directory lock, as in Remove.
	old.CompleteClear()
	return fresh, errors.WrongSentinelType(identity, kind, old.kind)
}

// Get returns the sentinel for identity without creating one.
func (d *Directory) Get(identity uint64) (*Sentinel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.entries[identity]
	return s, ok
}

// Remove detaches the sentinel for identity, forcing every outstanding
// operation to completion before returning it. Used when a resource's
// identity is retired.
func (d *Directory) Remove(identity uint64) (*Sentinel, bool) {
	d.mu.Lock()
	s, ok := d.entries[identity]
	if ok {
		delete(d.entries, identity)
	}
	d.mu.Unlock()

	if !ok {
		return nil, false
	}

	// Detached first so no new lookups reach it, then drained: callers
	// get a sentinel with an empty outstanding set.
	s.CompleteClear()
	return s, true
}

// Len returns the number of tracked identities.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Close drains and detaches every sentinel. The blocking completion
// calls happen outside the directory lock.
func (d *Directory) Close() error {
	d.mu.Lock()
	detached := make([]*Sentinel, 0, len(d.entries))
	for _, s := range d.entries {
		detached = append(detached, s)
	}
	d.entries = make(map[uint64]*Sentinel)
	d.mu.Unlock()

	for _, s := range detached {
		s.CompleteClear()
	}
	return nil
}
