package buffer

import (
	"crypto/sha256"
	"encoding/binary"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/principal"
)

// TxoBuffer stages a versioned sequence of UTXO indices: the spent/created
// delta set for one Dogecoin block. batch_id is monotonic across
// reopenings of the same buffer account, so a stale write destined for a
// prior batch can never land in the current one.
type TxoBuffer struct {
	writer    principal.Principal
	batchID   uint32
	height    uint32
	indices   []uint32
	finalized bool
}

// Init fixes the writer once.
func (b *TxoBuffer) Init(writer principal.Principal) error {
	if !b.writer.IsZero() {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "txo buffer: already initialized")
	}
	b.writer = writer
	return nil
}

// SetLen is the sole entry point for length changes. It requires
// batchID to be monotonically non-decreasing relative to the buffer's
// current batch, and rejects shrinking without resize.
func (b *TxoBuffer) SetLen(caller principal.Principal, newLen int, resize bool, batchID, height uint32, finalize bool) error {
	if !caller.Equal(b.writer) {
		return bridgeerr.Unauthorized("txo buffer: caller is not the writer")
	}
	if b.finalized && batchID == b.batchID {
		return bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "txo buffer: batch already finalized")
	}
	if batchID < b.batchID {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "txo buffer: stale batch id")
	}
	if batchID > b.batchID {
		// Reopening for a new batch always starts unfinalized and fresh.
		b.finalized = false
		b.indices = nil
	}
	if newLen < len(b.indices) && !resize {
		return bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "txo buffer: shrink requires resize=true")
	}
	if newLen < 0 {
		return bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "txo buffer: negative length")
	}
	grown := make([]uint32, newLen)
	copy(grown, b.indices)
	b.indices = grown
	b.batchID = batchID
	b.height = height
	b.finalized = finalize
	return nil
}

// Write sets the UTXO index at offset, for the given batch. Requires batch
// match and that the buffer is not yet finalized.
func (b *TxoBuffer) Write(caller principal.Principal, batchID uint32, offset int, value uint32) error {
	if !caller.Equal(b.writer) {
		return bridgeerr.Unauthorized("txo buffer: caller is not the writer")
	}
	if b.finalized {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "txo buffer: finalized")
	}
	if batchID != b.batchID {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "txo buffer: batch id mismatch")
	}
	if offset < 0 || offset >= len(b.indices) {
		return bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "txo buffer: write out of range")
	}
	b.indices[offset] = value
	return nil
}

// ContentHash computes the hash the bridge compares against a proof's
// txo_output_list_finalized_hash public input.
func (b *TxoBuffer) ContentHash() [32]byte {
	h := sha256.New()
	var tmp [4]byte
	for _, idx := range b.indices {
		binary.LittleEndian.PutUint32(tmp[:], idx)
		h.Write(tmp[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Finalized reports whether the current batch has been sealed.
func (b *TxoBuffer) Finalized() bool { return b.finalized }

// BatchID reports the buffer's current batch id.
func (b *TxoBuffer) BatchID() uint32 { return b.batchID }

// Height reports the Dogecoin block height this batch covers.
func (b *TxoBuffer) Height() uint32 { return b.height }

// Len returns the current allocation length.
func (b *TxoBuffer) Len() int { return len(b.indices) }

// Indices returns a read-only view of the staged UTXO indices.
func (b *TxoBuffer) Indices() []uint32 { return b.indices }
