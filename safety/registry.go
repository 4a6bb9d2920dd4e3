package safety

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/liveness/errors"
	"github.com/wippyai/liveness/spinlock"
)

const (
	// chunkSlots is the number of token cells per chunk. Chunks are
	// allocated on demand and never move, so slot indices stay stable
	// for the registry's whole lifetime.
	chunkSlots = 256

	// maxChunks caps pool growth. chunkSlots*maxChunks concurrent live
	// handles is the hard ceiling.
	maxChunks = 1024
)

var (
	// ErrStaleHandle matches destroys of dead or never-issued handles.
	ErrStaleHandle = errors.StaleHandle(0, 0)

	// ErrPoolFull matches creates past the chunk ceiling.
	ErrPoolFull = errors.PoolFull(maxChunks)

	// ErrLeakedHandles matches the Close report when handles are still
	// outstanding.
	ErrLeakedHandles = errors.Leaked(0)

	// ErrClosed matches operations on a closed registry.
	ErrClosed = errors.Closed(errors.PhaseRegistry, "registry")
)

// tokenCounter issues process-wide unique tokens. Shared across all
// registries so a token can never repeat on a reused slot, even across
// registry instances. Token 0 marks a free cell.
var tokenCounter atomic.Uint64

type chunk [chunkSlots]atomic.Uint64

// Registry is a pool of token slots backing safety handles. IsValid is
// a lock-free read; slot acquisition and release go through a short
// bounded-timeout critical section.
type Registry struct {
	chunks [maxChunks]atomic.Pointer[chunk]

	lock    spinlock.Lock
	timeout time.Duration

	// guarded by lock
	freeSlots []uint32
	nextSlot  uint32
	closed    bool
	debug     bool
	sites     map[uint32]string

	outstanding atomic.Int64
}

// NewRegistry creates an empty registry. Chunks are allocated lazily on
// first use of each slot range.
func NewRegistry() *Registry {
	return &Registry{
		timeout: spinlock.DefaultTimeout,
	}
}

// SetLockTimeout overrides the slot-pool lock budget.
func (r *Registry) SetLockTimeout(d time.Duration) {
	r.timeout = d
}

// SetDebug toggles creation-site capture. When enabled, every live
// handle records its Create caller, and the Close leak report names it.
// Capture costs a runtime.Caller per Create, so it is off by default.
// A lock timeout leaves the setting unchanged and is returned.
func (r *Registry) SetDebug(enabled bool) error {
	if err := r.lock.Acquire(r.timeout); err != nil {
		Logger().Error("slot pool lock timeout on set debug", zap.Error(err))
		return err
	}
	defer r.lock.Release()

	r.debug = enabled
	if enabled && r.sites == nil {
		r.sites = make(map[uint32]string)
	}
	return nil
}

// Create acquires a free slot, stamps a fresh token into it, and
// returns the handle. Fails with ErrPoolFull at the chunk ceiling and
// surfaces lock timeouts.
func (r *Registry) Create() (Handle, error) {
	if err := r.lock.Acquire(r.timeout); err != nil {
		Logger().Error("slot pool lock timeout on create", zap.Error(err))
		return Handle{}, err
	}
	defer r.lock.Release()

	if r.closed {
		return Handle{}, ErrClosed
	}

	var slot uint32
	if n := len(r.freeSlots); n > 0 {
		slot = r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
	} else {
		slot = r.nextSlot
		ci := slot / chunkSlots
		if ci >= maxChunks {
			Logger().Error("safety slot pool full",
				zap.Uint32("chunks", maxChunks),
				zap.Int64("outstanding", r.outstanding.Load()))
			return Handle{}, errors.PoolFull(maxChunks)
		}
		if r.chunks[ci].Load() == nil {
			r.chunks[ci].Store(new(chunk))
		}
		r.nextSlot++
	}

	token := tokenCounter.Add(1)
	r.cell(slot).Store(token)
	r.outstanding.Add(1)

	if r.debug {
		if _, file, line, ok := runtime.Caller(1); ok {
			r.sites[slot] = fmt.Sprintf("%s:%d", file, line)
		}
	}

	return Handle{slot: slot, token: token}, nil
}

// IsValid reports whether h still refers to a live slot. Pure read: one
// chunk-pointer load plus one token load, no lock.
func (r *Registry) IsValid(h Handle) bool {
	if h.token == 0 {
		return false
	}
	ci := h.slot / chunkSlots
	if ci >= maxChunks {
		return false
	}
	c := r.chunks[ci].Load()
	if c == nil {
		return false
	}
	return c[h.slot%chunkSlots].Load() == h.token
}

// Destroy invalidates a live handle and recycles its slot. Destroying a
// stale handle (double destroy, or a copy outlived by a reissue) fails
// with ErrStaleHandle and changes nothing.
func (r *Registry) Destroy(h Handle) error {
	if err := r.lock.Acquire(r.timeout); err != nil {
		Logger().Error("slot pool lock timeout on destroy", zap.Error(err))
		return err
	}
	defer r.lock.Release()

	if r.closed {
		return ErrClosed
	}

	if !r.IsValid(h) {
		Logger().Error("destroy of stale safety handle",
			zap.Uint32("slot", h.slot),
			zap.Uint64("token", h.token))
		return errors.StaleHandle(h.slot, h.token)
	}

	r.cell(h.slot).Store(0)
	r.freeSlots = append(r.freeSlots, h.slot)
	r.outstanding.Add(-1)
	if r.debug {
		delete(r.sites, h.slot)
	}
	return nil
}

// Outstanding returns the number of live handles.
func (r *Registry) Outstanding() int {
	return int(r.outstanding.Load())
}

// Close tears the pool down. Outstanding handles are a leak: each one
// is enumerated through the package logger (with its creation site when
// debug capture was on) and Close reports ErrLeakedHandles, but the
// backing memory is released regardless and every handle goes stale.
func (r *Registry) Close() error {
	if err := r.lock.Acquire(r.timeout); err != nil {
		return err
	}
	defer r.lock.Release()

	if r.closed {
		return nil
	}
	r.closed = true

	leaked := int(r.outstanding.Load())
	if leaked != 0 {
		for slot := uint32(0); slot < r.nextSlot; slot++ {
			token := r.cell(slot).Load()
			if token == 0 {
				continue
			}
			fields := []zap.Field{
				zap.Uint32("slot", slot),
				zap.Uint64("token", token),
			}
			if site, ok := r.sites[slot]; ok {
				fields = append(fields, zap.String("created_at", site))
			}
			Logger().Error("leaked safety handle", fields...)
		}
	}

	for i := range r.chunks {
		r.chunks[i].Store(nil)
	}
	r.freeSlots = nil
	r.nextSlot = 0
	r.sites = nil
	r.outstanding.Store(0)

	if leaked != 0 {
		return errors.Leaked(leaked)
	}
	return nil
}

func (r *Registry) cell(slot uint32) *atomic.Uint64 {
	c := r.chunks[slot/chunkSlots].Load()
	return &c[slot%chunkSlots]
}
