package buffer

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

// MaxMintsPerGroup bounds a single pending-mint group, matching the spec's
// boundary test: 24 succeeds, 25 fails.
const MaxMintsPerGroup = 24

// PendingMintLockState is a PendingMintBuffer's lock state.
type PendingMintLockState byte

const (
	PendingMintUnlocked PendingMintLockState = iota
	PendingMintLocked
)

// PendingMintBuffer stages grouped (recipient, amount) deposit records. The
// locker (the bridge state authority) and writer (the operator) roles are
// fixed at setup; only the locker may lock/unlock, only the writer may
// reinit/insert, and only while unlocked.
type PendingMintBuffer struct {
	locker principal.Principal
	writer principal.Principal
	state  PendingMintLockState
	groups [][]wire.PendingMint
	// consumed marks which groups have been minted, so a locked buffer
	// cannot be double-minted even across separate process_mint_group calls.
	consumed []bool
}

// Setup fixes the locker and writer roles once. Calling it again fails.
func (b *PendingMintBuffer) Setup(locker, writer principal.Principal) error {
	if !b.locker.IsZero() || !b.writer.IsZero() {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "pending mint buffer: already set up")
	}
	b.locker = locker
	b.writer = writer
	return nil
}

// Reinit resets group occupancy for totalGroups groups. Permitted only while
// unlocked, and only by the writer.
func (b *PendingMintBuffer) Reinit(caller principal.Principal, totalGroups int) error {
	if !caller.Equal(b.writer) {
		return bridgeerr.Unauthorized("pending mint buffer: caller is not the writer")
	}
	if b.state != PendingMintUnlocked {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "pending mint buffer: locked")
	}
	b.groups = make([][]wire.PendingMint, totalGroups)
	b.consumed = make([]bool, totalGroups)
	return nil
}

// Insert stages mints for groupIdx. Permitted only while unlocked, only by
// the writer, and only up to MaxMintsPerGroup entries.
func (b *PendingMintBuffer) Insert(caller principal.Principal, groupIdx int, mints []wire.PendingMint) error {
	if !caller.Equal(b.writer) {
		return bridgeerr.Unauthorized("pending mint buffer: caller is not the writer")
	}
	if b.state != PendingMintUnlocked {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "pending mint buffer: locked")
	}
	if groupIdx < 0 || groupIdx >= len(b.groups) {
		return bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "pending mint buffer: group index out of range")
	}
	if len(mints) > MaxMintsPerGroup {
		return bridgeerr.Cap(bridgeerr.CodeBufferTooLarge, "pending mint buffer: group exceeds max mints")
	}
	b.groups[groupIdx] = mints
	return nil
}

// Lock transitions unlocked -> locked. Only the locker may call it.
func (b *PendingMintBuffer) Lock(caller principal.Principal) error {
	if !caller.Equal(b.locker) {
		return bridgeerr.Unauthorized("pending mint buffer: caller is not the locker")
	}
	if b.state == PendingMintLocked {
		return bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "pending mint buffer: already locked")
	}
	b.state = PendingMintLocked
	return nil
}

// Unlock transitions locked -> unlocked. Only the locker may call it.
func (b *PendingMintBuffer) Unlock(caller principal.Principal) error {
	if !caller.Equal(b.locker) {
		return bridgeerr.Unauthorized("pending mint buffer: caller is not the locker")
	}
	b.state = PendingMintUnlocked
	return nil
}

// ReadGroup returns group i's staged mints. Only the locker may read while
// locked (mint execution reads through the bridge).
func (b *PendingMintBuffer) ReadGroup(caller principal.Principal, i int) ([]wire.PendingMint, error) {
	if !caller.Equal(b.locker) {
		return nil, bridgeerr.Unauthorized("pending mint buffer: caller is not the locker")
	}
	if i < 0 || i >= len(b.groups) {
		return nil, bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "pending mint buffer: group index out of range")
	}
	if b.consumed[i] {
		return nil, bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "pending mint buffer: group already consumed")
	}
	return b.groups[i], nil
}

// MarkConsumed records that group i has been minted, preventing a second
// process_mint_group call on the same group from double-minting.
func (b *PendingMintBuffer) MarkConsumed(i int) { b.consumed[i] = true }

// ContentHash computes H(all groups concatenated in order), the value the
// bridge compares against a proof's pending_mints_finalized_hash public
// input.
func (b *PendingMintBuffer) ContentHash() [32]byte {
	h := sha256.New()
	for _, group := range b.groups {
		for _, m := range group {
			enc := m.Encode()
			h.Write(enc)
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// GroupCount returns the number of groups this buffer was reinit'd with.
func (b *PendingMintBuffer) GroupCount() int { return len(b.groups) }

// State reports the buffer's lock state.
func (b *PendingMintBuffer) State() PendingMintLockState { return b.state }
