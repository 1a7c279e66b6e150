package bridgehost

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/buffer"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

// MaxReorgExtraBlocks bounds process_reorg_blocks' extra_blocks list to
// REORG_DEPTH-1, matching the spec's boundary test (reorg of 10 succeeds,
// 11 rejects).
const MaxReorgExtraBlocks = ReorgDepth - 1

// ProcessReorgBlocks fast-forwards the bridge across a multi-block reorg in
// one call: the proof commits to the ordered (mint,txo) finalized-hash pair
// for every intermediate block, in addition to the final mint/txo buffers
// for the new tip itself (SPEC_FULL §4.5).
func (b *Bridge) ProcessReorgBlocks(caller principal.Principal, proof wire.CompactProof, newHeader wire.BridgeHeader, extraBlocks []wire.FinalizedBlockMintTxoInfo, mintBuf *buffer.PendingMintBuffer, txoBuf *buffer.TxoBuffer) error {
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
	if len(extraBlocks) > MaxReorgExtraBlocks {
		return bridgeerr.Cap(bridgeerr.CodeBufferTooLarge, "bridgehost: too many extra_blocks for one reorg")
	}
	if newHeader.Finalized != b.header.Finalized {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: reorg must not move finalized forward")
	}
	if newHeader.Tip.BlockHeight-newHeader.Finalized.BlockHeight > ReorgDepth {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: tip/finalized gap exceeds reorg depth")
	}

	if err := b.verifyBufferHashes(mintBuf, txoBuf, newHeader.Tip); err != nil {
		return err
	}

	expectedStateHash := b.computeBridgeStateHash()
	if newHeader.BridgeStateHash != expectedStateHash {
		return bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: bridge_state_hash mismatch")
	}

	publicInputs := [][32]byte{
		commitmentDigest(b.header.Finalized),
		commitmentDigest(newHeader.Tip),
		commitmentDigest(newHeader.Finalized),
		newHeader.BridgeStateHash,
		mintBuf.ContentHash(),
		txoBuf.ContentHash(),
		sha256Of(b.returnUTXO.Encode()),
		extraBlocksCommitment(extraBlocks),
	}
	ok, err := b.verifiers.Reorg.Verify(publicInputs, proof)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Integ(bridgeerr.CodeInvalidProof, "bridgehost: process_reorg_blocks proof rejected")
	}

	b.header.Tip = newHeader.Tip
	b.header.Finalized = newHeader.Finalized
	b.header.LastRollbackAtSecs = newHeader.LastRollbackAtSecs
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	return nil
}

// extraBlocksCommitment hashes the ordered extra_blocks list into a single
// public input, so the proof commits to every intermediate block's finalized
// buffer hashes without the public-input vector growing with reorg depth.
func extraBlocksCommitment(blocks []wire.FinalizedBlockMintTxoInfo) [32]byte {
	h := sha256.New()
	for _, blk := range blocks {
		h.Write(blk.Encode())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
