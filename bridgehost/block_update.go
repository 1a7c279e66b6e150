package bridgehost

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/buffer"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

// commitmentDigest reduces a StateCommitment into the single 32-byte value
// used as a proof public input: its own SHA-256, since StateCommitment's
// encoding is already bit-exact and externally specified.
func commitmentDigest(c wire.StateCommitment) [32]byte {
	enc := c.Encode()
	return sha256Of(enc)
}

// BlockUpdate verifies a proof advancing the bridge's tip (and, on the
// normal path, its finalized commitment by one block). The staged mint/txo
// buffers must already be locked/finalized; BlockUpdate checks their state
// and content hashes but does not change them (SPEC_FULL §4.5).
func (b *Bridge) BlockUpdate(caller principal.Principal, proof wire.CompactProof, newHeader wire.BridgeHeader, mintBuf *buffer.PendingMintBuffer, txoBuf *buffer.TxoBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	if b.pausedAt(newHeader.Tip.BlockHeight) {
		return bridgeerr.Precond(bridgeerr.CodePaused, "bridgehost: bridge paused")
	}

	if newHeader.Tip.BlockHeight == b.header.Tip.BlockHeight && newHeader.Tip.BlockHash == b.header.Tip.BlockHash {
		return bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "bridgehost: block_update already applied for this tip")
	}
	if newHeader.Tip.BlockHeight != b.header.Tip.BlockHeight+1 {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: new tip must be exactly one block ahead")
	}
	if newHeader.Finalized != b.header.Finalized && newHeader.Finalized.BlockHeight != b.header.Finalized.BlockHeight+1 {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: finalized must advance by zero or one block")
	}
	if newHeader.Tip.BlockHeight-newHeader.Finalized.BlockHeight > ReorgDepth {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: tip/finalized gap exceeds reorg depth")
	}
	if newHeader.TotalFinalizedFeesCollectedChainHistory < b.header.TotalFinalizedFeesCollectedChainHistory {
		return bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: fee history total must not decrease")
	}

	if err := b.verifyBufferHashes(mintBuf, txoBuf, newHeader.Tip); err != nil {
		return err
	}

	publicInputs, err := b.blockUpdatePublicInputs(newHeader, mintBuf, txoBuf)
	if err != nil {
		return err
	}
	ok, err := b.verifiers.BlockUpdate.Verify(publicInputs, proof)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Integ(bridgeerr.CodeInvalidProof, "bridgehost: block_update proof rejected")
	}

	b.commitBlockUpdate(newHeader)
	return nil
}

// verifyBufferHashes requires both staging buffers to be frozen/locked and
// their content hashes to match the proposed header's committed values.
func (b *Bridge) verifyBufferHashes(mintBuf *buffer.PendingMintBuffer, txoBuf *buffer.TxoBuffer, tip wire.StateCommitment) error {
	if mintBuf.State() != buffer.PendingMintLocked {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: pending-mint buffer not locked")
	}
	if !txoBuf.Finalized() {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: txo buffer not finalized")
	}
	if mintBuf.ContentHash() != tip.PendingMintsFinalizedHash {
		return bridgeerr.Integ(bridgeerr.CodeBufferHashMismatch, "bridgehost: pending-mint buffer hash mismatch")
	}
	if txoBuf.ContentHash() != tip.TxoOutputListFinalizedHash {
		return bridgeerr.Integ(bridgeerr.CodeBufferHashMismatch, "bridgehost: txo buffer hash mismatch")
	}
	return nil
}

func (b *Bridge) blockUpdatePublicInputs(newHeader wire.BridgeHeader, mintBuf *buffer.PendingMintBuffer, txoBuf *buffer.TxoBuffer) ([][32]byte, error) {
	expectedStateHash := b.computeBridgeStateHash()
	if newHeader.BridgeStateHash != expectedStateHash {
		return nil, bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: bridge_state_hash mismatch")
	}
	return [][32]byte{
		commitmentDigest(b.header.Finalized),
		commitmentDigest(newHeader.Tip),
		commitmentDigest(newHeader.Finalized),
		newHeader.BridgeStateHash,
		mintBuf.ContentHash(),
		txoBuf.ContentHash(),
		sha256Of(b.returnUTXO.Encode()),
	}, nil
}

func (b *Bridge) commitBlockUpdate(newHeader wire.BridgeHeader) {
	// A rollback is the tip moving to a new block while finalized stays put:
	// still inside the reorg window, distinct from process_reorg_blocks.
	// BlockUpdate's own precondition already forces height to advance by
	// exactly one on every call that reaches here, so a height comparison
	// can never distinguish this case.
	rolledBack := newHeader.Finalized == b.header.Finalized
	b.header.Tip = newHeader.Tip
	b.header.Finalized = newHeader.Finalized
	if rolledBack {
		b.header.LastRollbackAtSecs = newHeader.LastRollbackAtSecs
	}
	feeDelta := newHeader.TotalFinalizedFeesCollectedChainHistory - b.header.TotalFinalizedFeesCollectedChainHistory
	b.header.TotalFinalizedFeesCollectedChainHistory = newHeader.TotalFinalizedFeesCollectedChainHistory
	b.totalFinalizedFees += feeDelta
	b.header.BridgeStateHash = b.computeBridgeStateHash()
}

func sha256Of(b []byte) [32]byte {
	return sha256.Sum256(b)
}
