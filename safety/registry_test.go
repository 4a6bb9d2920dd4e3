package safety

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/liveness/spinlock"
)

func TestRegistry_CreateValidDestroy(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	h, err := r.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !r.IsValid(h) {
		t.Fatal("Fresh handle should be valid")
	}
	if r.Outstanding() != 1 {
		t.Fatalf("Expected 1 outstanding, got %d", r.Outstanding())
	}

	if err := r.Destroy(h); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if r.IsValid(h) {
		t.Fatal("Destroyed handle should be invalid")
	}
	if r.Outstanding() != 0 {
		t.Fatalf("Expected 0 outstanding, got %d", r.Outstanding())
	}
}

func TestRegistry_ZeroHandleInvalid(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	if r.IsValid(Handle{}) {
		t.Fatal("Zero handle should be invalid")
	}
	if err := r.Destroy(Handle{}); !stderrors.Is(err, ErrStaleHandle) {
		t.Fatalf("Expected ErrStaleHandle, got %v", err)
	}
}

func TestRegistry_StaleAfterSlotReuse(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	old, err := r.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := r.Destroy(old); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	// The freed slot is reused by the next create, with a new token.
	fresh, err := r.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fresh.Slot() != old.Slot() {
		t.Fatalf("Expected slot %d reused, got %d", old.Slot(), fresh.Slot())
	}
	if fresh.Token() == old.Token() {
		t.Fatal("Reused slot must carry a different token")
	}

	if r.IsValid(old) {
		t.Fatal("Old handle must stay invalid after slot reuse")
	}
	if !r.IsValid(fresh) {
		t.Fatal("Fresh handle should be valid")
	}
}

func TestRegistry_DoubleDestroy(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	h, _ := r.Create()
	if err := r.Destroy(h); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := r.Destroy(h); !stderrors.Is(err, ErrStaleHandle) {
		t.Fatalf("Expected ErrStaleHandle on double destroy, got %v", err)
	}
	if r.Outstanding() != 0 {
		t.Fatalf("Double destroy must not skew the count, got %d", r.Outstanding())
	}
}

func TestRegistry_GrowsAcrossChunks(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	handles := make([]Handle, 0, chunkSlots*3)
	for i := 0; i < chunkSlots*3; i++ {
		h, err := r.Create()
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		if !r.IsValid(h) {
			t.Fatalf("Handle for slot %d should be valid", h.Slot())
		}
	}
	for _, h := range handles {
		if err := r.Destroy(h); err != nil {
			t.Fatalf("Destroy slot %d failed: %v", h.Slot(), err)
		}
	}
	if r.Outstanding() != 0 {
		t.Fatalf("Expected 0 outstanding, got %d", r.Outstanding())
	}
}

func TestRegistry_PoolFull(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates the whole slot pool")
	}

	r := NewRegistry()
	defer r.Close()

	total := chunkSlots * maxChunks
	last := Handle{}
	for i := 0; i < total; i++ {
		h, err := r.Create()
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		last = h
	}

	if _, err := r.Create(); !stderrors.Is(err, ErrPoolFull) {
		t.Fatalf("Expected ErrPoolFull, got %v", err)
	}

	// Freeing one slot unblocks creation.
	if err := r.Destroy(last); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := r.Create(); err != nil {
		t.Fatalf("Create after free failed: %v", err)
	}
}

func TestRegistry_CloseReportsLeaks(t *testing.T) {
	r := NewRegistry()

	kept, _ := r.Create()
	r.Create()

	err := r.Close()
	if !stderrors.Is(err, ErrLeakedHandles) {
		t.Fatalf("Expected ErrLeakedHandles, got %v", err)
	}

	// Teardown still released the pool: everything is stale now.
	if r.IsValid(kept) {
		t.Fatal("Handles must be invalid after Close")
	}
	if _, err := r.Create(); !stderrors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}

func TestRegistry_CloseClean(t *testing.T) {
	r := NewRegistry()
	h, _ := r.Create()
	r.Destroy(h)

	if err := r.Close(); err != nil {
		t.Fatalf("Clean close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Second close should be a no-op: %v", err)
	}
}

func TestRegistry_DebugSites(t *testing.T) {
	r := NewRegistry()
	if err := r.SetDebug(true); err != nil {
		t.Fatalf("SetDebug failed: %v", err)
	}

	r.Create()
	if err := r.Close(); !stderrors.Is(err, ErrLeakedHandles) {
		t.Fatalf("Expected ErrLeakedHandles, got %v", err)
	}
}

func TestRegistry_LockTimeout(t *testing.T) {
	r := NewRegistry()
	defer func() {
		r.lock.Release()
		r.Close()
	}()
	r.SetLockTimeout(5 * time.Millisecond)

	if err := r.lock.Acquire(spinlock.DefaultTimeout); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := r.Create(); !stderrors.Is(err, spinlock.ErrTimeout) {
		t.Fatalf("Expected lock timeout from Create, got %v", err)
	}
	if err := r.Destroy(Handle{slot: 0, token: 1}); !stderrors.Is(err, spinlock.ErrTimeout) {
		t.Fatalf("Expected lock timeout from Destroy, got %v", err)
	}
	if err := r.SetDebug(true); !stderrors.Is(err, spinlock.ErrTimeout) {
		t.Fatalf("Expected lock timeout from SetDebug, got %v", err)
	}
	if r.debug {
		t.Fatal("Timed-out SetDebug must leave the setting unchanged")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	r.SetLockTimeout(time.Second)
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, err := r.Create()
				if err != nil {
					t.Error(err)
					return
				}
				if !r.IsValid(h) {
					t.Error("handle invalid immediately after create")
					return
				}
				if err := r.Destroy(h); err != nil {
					t.Error(err)
					return
				}
				if r.IsValid(h) {
					t.Error("handle valid after destroy")
					return
				}
			}
		}()
	}
	wg.Wait()

	if r.Outstanding() != 0 {
		t.Fatalf("Expected 0 outstanding, got %d", r.Outstanding())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
