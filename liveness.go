package liveness

import (
	"math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/liveness/ident"
	"github.com/wippyai/liveness/job"
	"github.com/wippyai/liveness/safety"
	"github.com/wippyai/liveness/sentinel"
)

// Guard is the composed liveness service: an identity allocator, a
// safety handle registry, and a sentinel directory sharing one
// init/teardown lifecycle. Construct with NewGuard and pass by
// reference; there are no package-level instances.
type Guard struct {
	ids       *ident.Locked[uint64]
	handles   *safety.Registry
	sentinels *sentinel.Directory
}

// Option configures a Guard.
type Option func(*Guard)

// WithIDRange overrides the identity range (default [1, MaxUint64]).
func WithIDRange(min, max uint64) Option {
	return func(g *Guard) {
		g.ids = ident.NewLocked[uint64](min, max)
	}
}

// NewGuard creates a Guard combining dependencies through sched.
func NewGuard(sched job.Scheduler, opts ...Option) *Guard {
	g := &Guard{
		ids:       ident.NewLocked[uint64](1, math.MaxUint64),
		handles:   safety.NewRegistry(),
		sentinels: sentinel.NewDirectory(sched),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AcquireID issues a fresh resource identity.
func (g *Guard) AcquireID() (uint64, error) {
	return g.ids.Fetch()
}

// ReleaseID retires a resource identity: the identity's sentinel (if
// any) is removed with all outstanding operations forced to completion,
// then the id returns to the allocator. Blocks while dependencies drain.
func (g *Guard) ReleaseID(id uint64) error {
	g.sentinels.Remove(id)
	return g.ids.Return(id)
}

// Track returns the sentinel for id, creating one wrapping resource on
// first use.
func (g *Guard) Track(id uint64, kind uint32, resource any) (*sentinel.Sentinel, error) {
	return g.sentinels.GetOrCreate(id, kind, resource)
}

// NewHandle creates a safety handle.
func (g *Guard) NewHandle() (safety.Handle, error) {
	return g.handles.Create()
}

// DropHandle destroys a safety handle.
func (g *Guard) DropHandle(h safety.Handle) error {
	return g.handles.Destroy(h)
}

// Alive reports whether a safety handle is still valid.
func (g *Guard) Alive(h safety.Handle) bool {
	return g.handles.IsValid(h)
}

// IDs exposes the identity allocator.
func (g *Guard) IDs() *ident.Locked[uint64] {
	return g.ids
}

// Handles exposes the safety handle registry.
func (g *Guard) Handles() *safety.Registry {
	return g.handles
}

// Sentinels exposes the sentinel directory.
func (g *Guard) Sentinels() *sentinel.Directory {
	return g.sentinels
}

// Close tears everything down: sentinels are drained first (blocking on
// in-flight work), then the handle registry closes with its leak
// report. Errors are combined, not short-circuited.
func (g *Guard) Close() error {
	return multierr.Combine(
		g.sentinels.Close(),
		g.handles.Close(),
	)
}

// SetLogger fans a logger out to every package in the library.
func SetLogger(l *zap.Logger) {
	ident.SetLogger(l)
	safety.SetLogger(l)
	sentinel.SetLogger(l)
}
