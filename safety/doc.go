// Package safety provides cheap use-after-free detection for unmanaged
// resources via generational slot handles.
//
// # Model
//
// A Registry owns a chunked pool of token cells. Create picks a free
// cell, writes a fresh process-wide-unique token into it, and hands back
// a Handle carrying (slot index, token). Any component holding a copy of
// the handle can ask "is the thing this guards still alive?" without
// touching the guarded resource:
//
//	reg := safety.NewRegistry()
//	h, err := reg.Create()
//	...
//	if reg.IsValid(h) { // single atomic load
//	    // resource is live
//	}
//	reg.Destroy(h)
//
// Destroy zeroes the cell; a later Create may reuse the slot but writes
// a different token, so every stale copy of the old handle stays invalid
// forever. No per-copy tracking is needed.
//
// # Concurrency
//
// IsValid is lock-free. Create/Destroy take a bounded-timeout spin lock
// around the slot pool bookkeeping; a timeout surfaces as an error, not
// a hang.
//
// # Leak detection
//
// Handles are not garbage collected. Close logs every still-outstanding
// handle and reports ErrLeakedHandles; enable SetDebug to include each
// leak's creation site in the report.
package safety
