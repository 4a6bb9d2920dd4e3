// Package ident provides compact unique integer identifier allocation
// with reclamation and backward compaction.
//
// # Allocation model
//
// An Allocator issues ids from a configured [min, max] range. Issued ids
// come either from an ordered free list of reclaimed ids (highest first)
// or from the frontier, the smallest id never yet issued:
//
//	alloc := ident.New[uint32](1, math.MaxUint32)
//	id, err := alloc.Fetch()
//	...
//	err = alloc.Return(id)
//
// Returning the currently highest claimed id retreats the frontier past
// any contiguous run of already-freed ids, so long-lived allocators do
// not accumulate free-list entries for ids nobody will reuse.
//
// # Locking
//
// Allocator itself is deliberately unsynchronized: callers hold one lock
// for the whole instance around Fetch/Return/TryClaim. Locked wraps an
// Allocator together with a bounded-timeout spin lock for callers that
// want per-call safety:
//
//	ids := ident.NewLocked[uint64](1, math.MaxUint64)
//	id, err := ids.Fetch() // may fail with a lock timeout error
//
// # Exhaustion
//
// Issuing the final id of the range logs a warning through the package
// logger; once every id is claimed, Fetch fails with ErrExhausted rather
// than issuing duplicates.
package ident
