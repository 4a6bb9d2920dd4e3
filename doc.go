// Package liveness provides resource identity allocation and liveness
// tracking for unmanaged resources.
//
// The library is organized into small packages with distinct
// responsibilities:
//
//	liveness/      Root package with the Guard service object
//	├── ident/     Unique integer id allocation with backward compaction
//	├── safety/    Generational slot handles for use-after-free detection
//	├── sentinel/  Outstanding-async-op tracking per resource
//	├── job/       Boundary to the host's async task scheduler
//	├── spinlock/  Bounded-timeout mutual exclusion primitive
//	└── errors/    Structured error types
//
// # Quick start
//
// A Guard bundles one allocator, one handle registry, and one sentinel
// directory with a single lifecycle:
//
//	g := liveness.NewGuard(job.NewGoScheduler())
//	defer g.Close()
//
//	id, err := g.AcquireID()
//	s, err := g.Track(id, kindTexture, tex)
//	s.AddJob(sched.Schedule(uploadTexture))
//	...
//	err = g.ReleaseID(id) // blocks until the upload is done
//
// Each piece is usable on its own; the Guard only wires them together.
// There is no garbage collection here: every AcquireID is paired with a
// ReleaseID and every handle with a destroy, and Close reports what was
// leaked.
package liveness
