// Package buffer implements the data-availability staging buffers the
// bridge core reads proof public inputs from: GenericBuffer (raw staged
// bytes), PendingMintBuffer (grouped deposit records) and TxoBuffer
// (versioned UTXO index deltas).
//
// None of these types talk to storage directly; store.DB persists their
// serialized form. They exist to enforce the state machine each buffer
// kind is specified to have, independent of how bytes reach disk.
package buffer

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
)

// GenericState is a GenericBuffer's lifecycle stage.
type GenericState byte

const (
	GenericUninit GenericState = iota
	GenericSized
	GenericFrozen
)

// GenericBuffer stages an arbitrary byte payload until it is frozen and its
// content hash is read as a proof public input. Buffers are single-use:
// there is no unfreeze.
type GenericBuffer struct {
	state   GenericState
	payload []byte
	hash    [32]byte
}

// Init allocates the payload and moves Uninit -> Sized. Fails if already
// initialized.
func (b *GenericBuffer) Init(targetLen int) error {
	if b.state != GenericUninit {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "generic buffer: already initialized")
	}
	if targetLen < 0 {
		return bridgeerr.Cap(bridgeerr.CodeBufferTooLarge, "generic buffer: negative target length")
	}
	b.payload = make([]byte, targetLen)
	b.state = GenericSized
	return nil
}

// Write copies bytes into the payload at offset. Permitted only while Sized
// (not yet frozen).
func (b *GenericBuffer) Write(offset int, data []byte) error {
	if b.state != GenericSized {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "generic buffer: not writable")
	}
	if offset < 0 || offset+len(data) > len(b.payload) {
		return bridgeerr.Precond(bridgeerr.CodeBufferTooLarge, "generic buffer: write out of range")
	}
	copy(b.payload[offset:], data)
	return nil
}

// Freeze seals the buffer and computes its SHA-256 sighash. Buffers are
// single-use: Freeze fails if already frozen.
func (b *GenericBuffer) Freeze() ([32]byte, error) {
	if b.state == GenericFrozen {
		return b.hash, bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "generic buffer: already frozen")
	}
	if b.state != GenericSized {
		return [32]byte{}, bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "generic buffer: not sized")
	}
	b.hash = sha256.Sum256(b.payload)
	b.state = GenericFrozen
	return b.hash, nil
}

// State reports the buffer's lifecycle stage.
func (b *GenericBuffer) State() GenericState { return b.state }

// Sighash returns the frozen content hash. It is the zero hash until Freeze
// has run.
func (b *GenericBuffer) Sighash() [32]byte { return b.hash }

// Payload returns a read-only view of the staged bytes. It does not copy:
// callers must not mutate the returned slice.
func (b *GenericBuffer) Payload() []byte { return b.payload }
