package job

// GoScheduler is the in-process Scheduler backed by goroutines. Hosts
// with their own task system plug in behind the Scheduler interface
// instead; GoScheduler is the reference implementation used by tests
// and tools.
type GoScheduler struct{}

// NewGoScheduler creates a goroutine-backed scheduler.
func NewGoScheduler() *GoScheduler {
	return &GoScheduler{}
}

// Schedule runs work on its own goroutine and returns its handle.
func (s *GoScheduler) Schedule(work func()) Handle {
	h := &goHandle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		work()
	}()
	return h
}

// Combine returns a handle satisfied only when both inputs are.
func (s *GoScheduler) Combine(a, b Handle) Handle {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &pairHandle{a: a, b: b}
}

type goHandle struct {
	done chan struct{}
}

func (h *goHandle) IsComplete() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *goHandle) ForceComplete() {
	<-h.done
}

type pairHandle struct {
	a, b Handle
}

func (h *pairHandle) IsComplete() bool {
	return h.a.IsComplete() && h.b.IsComplete()
}

func (h *pairHandle) ForceComplete() {
	h.a.ForceComplete()
	h.b.ForceComplete()
}

// Completed returns a handle that is already satisfied.
func Completed() Handle {
	return completedHandle{}
}

type completedHandle struct{}

func (completedHandle) IsComplete() bool { return true }

func (completedHandle) ForceComplete() {}
