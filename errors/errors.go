package errors

import (
	"fmt"
	"strings"
	"time"
)

// Phase indicates which subsystem detected the error
type Phase string

const (
	PhaseAlloc    Phase = "alloc"    // identity allocator
	PhaseRegistry Phase = "registry" // safety handle registry
	PhaseSentinel Phase = "sentinel" // sentinel directory
	PhaseLock     Phase = "lock"     // spin lock acquisition
	PhaseTeardown Phase = "teardown" // Close paths
)

// Kind categorizes the error
type Kind string

const (
	KindExhausted     Kind = "exhausted"           // identifier space used up
	KindInvalidReturn Kind = "invalid_return"      // returning an unclaimed or out-of-range id
	KindStaleHandle   Kind = "stale_handle"        // destroy/validate on a dead safety handle
	KindLockTimeout   Kind = "lock_timeout"        // bounded spin lock gave up
	KindWrongType     Kind = "wrong_sentinel_type" // directory entry has an unexpected resource kind
	KindPoolFull      Kind = "pool_full"           // slot pool hit its chunk ceiling
	KindLeaked        Kind = "leaked_handles"      // outstanding handles at teardown
	KindClosed        Kind = "closed"              // operation on a torn-down component
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Two Errors match when their Phase and Kind are equal; Detail, Value
// and Cause are context, not identity.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// Exhausted creates an identifier-space-exhausted error
func Exhausted(max any) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("identifier space exhausted (max %v)", max),
		Value:  max,
	}
}

// InvalidReturn creates an invalid-return error for an id that is not claimed
func InvalidReturn(id any, reason string) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindInvalidReturn,
		Detail: fmt.Sprintf("cannot return id %v: %s", id, reason),
		Value:  id,
	}
}

// StaleHandle creates a stale-handle error for a dead or never-issued handle
func StaleHandle(slot uint32, token uint64) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindStaleHandle,
		Detail: fmt.Sprintf("handle slot %d token %d is not live", slot, token),
	}
}

// LockTimeout creates a lock acquisition timeout error
func LockTimeout(phase Phase, timeout time.Duration) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLockTimeout,
		Detail: fmt.Sprintf("lock not acquired within %v", timeout),
	}
}

// WrongSentinelType creates a sentinel kind mismatch error
func WrongSentinelType(identity uint64, want, got uint32) *Error {
	return &Error{
		Phase:  PhaseSentinel,
		Kind:   KindWrongType,
		Detail: fmt.Sprintf("identity %d: want kind %d, directory holds kind %d", identity, want, got),
		Value:  identity,
	}
}

// PoolFull creates a slot-pool-exhausted error
func PoolFull(chunks int) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindPoolFull,
		Detail: fmt.Sprintf("slot pool at chunk ceiling (%d chunks)", chunks),
	}
}

// Leaked creates a teardown leak report error
func Leaked(count int) *Error {
	return &Error{
		Phase:  PhaseTeardown,
		Kind:   KindLeaked,
		Detail: fmt.Sprintf("%d safety handle(s) still outstanding", count),
		Value:  count,
	}
}

// Closed creates an operation-after-teardown error
func Closed(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", component),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
