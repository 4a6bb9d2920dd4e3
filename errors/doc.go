// Package errors provides structured error types for the liveness library.
//
// Errors are categorized by Phase (which subsystem detected the failure)
// and Kind (error category). Matching via errors.Is compares Phase and
// Kind only, so packages can export sentinel values:
//
//	var ErrExhausted = errors.Exhausted(nil)
//
//	if errors.Is(err, ident.ErrExhausted) { ... }
//
// Use convenience constructors for the common patterns:
//
//	err := errors.InvalidReturn(id, "not claimed")
//	err := errors.LockTimeout(errors.PhaseAlloc, timeout)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
