package job

// Handle is an opaque completion capability for one asynchronous
// operation. The liveness layer never inspects an operation's internals;
// it only polls, blocks on, and combines handles.
type Handle interface {
	// IsComplete reports whether the operation has finished. It must be
	// safe to call from any goroutine and must not block.
	IsComplete() bool

	// ForceComplete blocks until the operation has finished. Calling it
	// on an already-complete handle finalizes the operation (drains any
	// deferred side effects) and returns immediately.
	ForceComplete()
}

// Scheduler issues and composes asynchronous operations.
type Scheduler interface {
	// Schedule starts work asynchronously and returns its handle.
	Schedule(work func()) Handle

	// Combine returns a handle that completes once both inputs have
	// completed. Either input may be nil, in which case the other is
	// returned unchanged.
	Combine(a, b Handle) Handle
}
