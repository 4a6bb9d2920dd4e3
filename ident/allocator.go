package ident

import (
	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/wippyai/liveness/errors"
)

// Integer covers the identifier widths the allocator supports.
type Integer interface {
	~int16 | ~int32 | ~int64 | ~uint16 | ~uint32 | ~uint64
}

var (
	// ErrExhausted matches fetch failures once every id in [min, max] is claimed.
	ErrExhausted = errors.Exhausted(nil)

	// ErrInvalidReturn matches returns of unclaimed or out-of-range ids.
	ErrInvalidReturn = errors.InvalidReturn(nil, "")
)

// free-list btree degree; free lists are usually small and bursty
const freeDegree = 16

// Allocator issues unique integer identifiers from [min, max] and
// reclaims returned ones. Reclaimed ids live in an ordered free list;
// returning the highest claimed id instead retreats the frontier past
// any contiguous run of already-freed ids (backward compaction).
//
// An Allocator is NOT internally synchronized. Callers either hold one
// lock around every mutating call for a given instance, or use Locked.
type Allocator[T Integer] struct {
	free *btree.BTreeG[T]
	min  T
	max  T

	// next is the smallest id never yet issued. It saturates at max;
	// maxIssued records whether max itself has been claimed, so no
	// arithmetic ever wraps past the type's range.
	next      T
	maxIssued bool
}

// New creates an allocator issuing ids from [min, max]. max is the
// largest issuable value. Panics if the range is empty; a one-id range
// is allowed.
func New[T Integer](min, max T) *Allocator[T] {
	if max < min {
		panic("ident: empty id range")
	}
	return &Allocator[T]{
		free: btree.NewG[T](freeDegree, func(a, b T) bool { return a < b }),
		min:  min,
		max:  max,
		next: min,
	}
}

// Fetch issues an id. The most recently freed (numerically highest)
// free-list entry is reused first; otherwise the frontier advances.
// Issuing the final id logs a warning; once everything is claimed,
// Fetch fails with ErrExhausted.
func (a *Allocator[T]) Fetch() (T, error) {
	if id, ok := a.free.DeleteMax(); ok {
		return id, nil
	}

	if a.maxIssued {
		var zero T
		return zero, errors.Exhausted(a.max)
	}

	id := a.next
	if a.next == a.max {
		a.maxIssued = true
		Logger().Warn("identifier space exhausted",
			zap.Any("max", a.max))
	} else {
		a.next++
	}
	return id, nil
}

// Return reclaims a previously issued id. Returning the highest claimed
// id compacts the frontier backward across contiguous freed ids;
// anything else is inserted into the ordered free list. Returning an
// unclaimed or out-of-range id fails with ErrInvalidReturn.
func (a *Allocator[T]) Return(id T) error {
	if !a.IsClaimed(id) {
		Logger().Error("return of unclaimed identifier", zap.Any("id", id))
		return errors.InvalidReturn(id, "not claimed")
	}

	if a.isHighestClaimed(id) {
		if a.maxIssued {
			a.maxIssued = false
		} else {
			a.next--
		}
		for a.next > a.min {
			if _, ok := a.free.Delete(a.next - 1); !ok {
				break
			}
			a.next--
		}
		return nil
	}

	a.free.ReplaceOrInsert(id)
	return nil
}

// isHighestClaimed reports whether id is the largest currently claimed
// value, the trigger for backward compaction. With maxIssued set the
// frontier is saturated and max itself is the highest claimed id.
func (a *Allocator[T]) isHighestClaimed(id T) bool {
	if a.maxIssued {
		return id == a.max
	}
	return a.next > a.min && id == a.next-1
}

// TryClaim claims a specific id. Below the frontier it succeeds only if
// the id sits in the free list. Claiming at or above the frontier fills
// the gap [frontier, id) into the free list and moves the frontier past
// the claimed id. Reports whether the claim succeeded.
func (a *Allocator[T]) TryClaim(id T) bool {
	if id < a.min || id > a.max {
		return false
	}

	if id < a.next {
		_, ok := a.free.Delete(id)
		return ok
	}

	// id >= next; with maxIssued set the frontier is spent
	if a.maxIssued {
		return false
	}

	// every gap id is larger than any current free-list entry
	for v := a.next; v < id; v++ {
		a.free.ReplaceOrInsert(v)
	}

	if id == a.max {
		a.next = a.max
		a.maxIssued = true
		Logger().Warn("identifier space exhausted",
			zap.Any("max", a.max))
	} else {
		a.next = id + 1
	}
	return true
}

// Reset returns the allocator to its freshly constructed state.
func (a *Allocator[T]) Reset() {
	a.free.Clear(false)
	a.next = a.min
	a.maxIssued = false
}

// IsClaimed reports whether id is currently issued.
func (a *Allocator[T]) IsClaimed(id T) bool {
	if id < a.min {
		return false
	}
	if a.free.Has(id) {
		return false
	}
	if id < a.next {
		return true
	}
	return id == a.max && a.maxIssued
}

// Frontier returns the smallest id never yet issued. When the final id
// has been claimed the frontier sits at max with Exhausted reporting
// true, since max+1 is not representable.
func (a *Allocator[T]) Frontier() T {
	return a.next
}

// Exhausted reports whether every id in [min, max] has been issued at
// least as far as the frontier is concerned (the free list may still
// hold reclaimable ids).
func (a *Allocator[T]) Exhausted() bool {
	return a.maxIssued
}

// FreeCount returns the number of reclaimed ids awaiting reuse.
func (a *Allocator[T]) FreeCount() int {
	return a.free.Len()
}
