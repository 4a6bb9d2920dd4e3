package sentinel

import (
	"sync"

	"github.com/wippyai/liveness/job"
)

// Sentinel tracks the asynchronous operations outstanding against one
// guarded resource. A sentinel is either empty (no pending ops) or
// pending; draining the last op makes it empty again. Sentinels are
// created and owned by a Directory.
type Sentinel struct {
	mu       sync.Mutex
	sched    job.Scheduler
	resource any
	kind     uint32
	jobs     []job.Handle
}

func newSentinel(sched job.Scheduler, kind uint32, resource any) *Sentinel {
	return &Sentinel{
		sched:    sched,
		kind:     kind,
		resource: resource,
	}
}

// Resource returns the guarded resource reference.
func (s *Sentinel) Resource() any {
	return s.resource
}

// Kind returns the resource kind tag the sentinel was created with.
func (s *Sentinel) Kind() uint32 {
	return s.kind
}

// AddJob registers an outstanding operation against the resource.
// Nil handles are ignored.
func (s *Sentinel) AddJob(h job.Handle) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, h)
}

// Check drains every completed operation from the outstanding set
// (finalizing each via ForceComplete, a no-op wait for completed
// handles) and reports whether any remain. When wantCombined is set and
// operations remain, they are folded into one joint handle through the
// scheduler's combine primitive.
func (s *Sentinel) Check(wantCombined bool) (pending bool, combined job.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.jobs[:0]
	for _, h := range s.jobs {
		if h.IsComplete() {
			h.ForceComplete()
			continue
		}
		kept = append(kept, h)
		if wantCombined {
			combined = s.sched.Combine(combined, h)
		}
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept

	return len(s.jobs) > 0, combined
}

// CompleteClear blocks until every outstanding operation has run to
// completion, then empties the set. Call immediately before tearing
// down the guarded resource.
func (s *Sentinel) CompleteClear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, h := range s.jobs {
		h.ForceComplete()
		s.jobs[i] = nil
	}
	s.jobs = s.jobs[:0]
}

// Pending returns the current size of the outstanding set without
// draining anything.
func (s *Sentinel) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
