package safety

// Handle is a liveness token for one registry slot: the slot's stable
// index plus the token that was written into it at creation. A handle
// proves its slot is still live when the slot's current token equals the
// captured one; reissuing the slot rewrites the token, permanently
// invalidating every copy of the old handle.
//
// The zero Handle is always invalid (token 0 is never issued).
type Handle struct {
	slot  uint32
	token uint64
}

// Slot returns the handle's stable slot index.
func (h Handle) Slot() uint32 { return h.slot }

// Token returns the handle's captured token.
func (h Handle) Token() uint64 { return h.token }
