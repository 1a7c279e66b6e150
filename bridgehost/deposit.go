package bridgehost

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/buffer"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

// ProcessMintGroup mints one already-locked pending-mint group (opcode 7):
// marks the group consumed so a replay can never double-mint, and releases
// the buffer back to unlocked when the caller signals this was the last
// group (SPEC_FULL §4.6).
func (b *Bridge) ProcessMintGroup(caller principal.Principal, mintBuf *buffer.PendingMintBuffer, groupIdx int, shouldUnlock bool) ([]wire.PendingMint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processMintGroupLocked(caller, mintBuf, groupIdx, shouldUnlock)
}

func (b *Bridge) processMintGroupLocked(caller principal.Principal, mintBuf *buffer.PendingMintBuffer, groupIdx int, shouldUnlock bool) ([]wire.PendingMint, error) {
	if err := b.requireInitialized(); err != nil {
		return nil, err
	}
	if err := b.requireOperator(caller); err != nil {
		return nil, err
	}
	if b.custodianTransition.DepositsBlocked() {
		return nil, bridgeerr.Precond(bridgeerr.CodeDepositsBlocked, "bridgehost: deposits blocked during custodian transition")
	}

	if mintBuf.State() != buffer.PendingMintLocked {
		return nil, bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: pending-mint buffer not locked")
	}
	if shouldUnlock && groupIdx != mintBuf.GroupCount()-1 {
		return nil, bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: should_unlock only valid on the last group")
	}

	mints, err := mintBuf.ReadGroup(b.bufferLocker, groupIdx)
	if err != nil {
		return nil, err
	}
	mintBuf.MarkConsumed(groupIdx)

	if shouldUnlock {
		if err := mintBuf.Unlock(b.bufferLocker); err != nil {
			return nil, err
		}
	}
	return mints, nil
}

// ProcessMintGroupAutoAdvance (opcode 9) batches process_mint_group with a
// txo-buffer set_len advance in one call. Per the recorded decision for this
// implementation, it adds no new precondition beyond what each
// sub-operation already enforces (SPEC_FULL §9).
func (b *Bridge) ProcessMintGroupAutoAdvance(caller principal.Principal, mintBuf *buffer.PendingMintBuffer, groupIdx int, shouldUnlock bool, txoBuf *buffer.TxoBuffer, newTxoLen int, resizeTxo bool, txoBatchID, txoHeight uint32, finalizeTxo bool) ([]wire.PendingMint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mints, err := b.processMintGroupLocked(caller, mintBuf, groupIdx, shouldUnlock)
	if err != nil {
		return nil, err
	}
	if err := txoBuf.SetLen(b.bufferLocker, newTxoLen, resizeTxo, txoBatchID, txoHeight, finalizeTxo); err != nil {
		return nil, err
	}
	return mints, nil
}

// ProcessManualDeposit (opcode 0 of the manual-claim program, surfaced here
// as the bridge-side entrypoint it cross-invokes) admits a deposit the
// auto-claim pipeline never covered. The proof attests non-membership in
// both the auto-claim TXO tree and the caller's own manual-claim subtree, so
// a duplicate claim is rejected before it ever reaches the verifier
// (SPEC_FULL §4.6).
func (b *Bridge) ProcessManualDeposit(caller principal.Principal, claim wire.ManualClaimInstructionData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return err
	}
	if b.custodianTransition.DepositsBlocked() {
		return bridgeerr.Precond(bridgeerr.CodeDepositsBlocked, "bridgehost: deposits blocked during custodian transition")
	}
	if claim.RecentBlockMerkleTreeRoot != b.header.Tip.BlockMerkleTreeRoot {
		return bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: recent_block_merkle_tree_root stale")
	}
	if claim.RecentAutoClaimTxoRoot != b.header.Tip.AutoClaimedTxoTreeRoot {
		return bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: recent_auto_claim_txo_root stale")
	}

	already, err := b.db.HasManualClaim(caller, claim.TxHash)
	if err != nil {
		return err
	}
	if already {
		return bridgeerr.Dup(bridgeerr.CodeDepositAlreadyClaimed, "bridgehost: deposit already claimed")
	}

	subtree := b.manualClaimSubtree(caller)
	oldUserRoot := subtree.Root()
	newUserRoot, err := subtree.PreviewAppend(claim.TxHash)
	if err != nil {
		return bridgeerr.Cap(bridgeerr.CodeTreeFull, "bridgehost: manual-claim subtree full")
	}

	// tx_hash/recipient/combined_txo_index/amount_sats are bound here so the
	// proof actually attests non-membership at the claimed index and ties
	// the mint to the claimed destination/amount, not just to some tx_hash.
	publicInputs := [][32]byte{
		claim.TxHash,
		claim.RecipientPubkey,
		u64Digest(claim.CombinedTxoIndex),
		u64Digest(claim.AmountSats),
		claim.RecentBlockMerkleTreeRoot,
		claim.RecentAutoClaimTxoRoot,
		oldUserRoot,
		newUserRoot,
	}
	ok, err := b.verifiers.ManualDeposit.Verify(publicInputs, claim.Proof)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Integ(bridgeerr.CodeInvalidProof, "bridgehost: process_manual_deposit proof rejected")
	}

	idx := subtree.NextIndex()
	if _, err := subtree.Append(claim.TxHash); err != nil {
		return bridgeerr.Cap(bridgeerr.CodeTreeFull, "bridgehost: manual-claim subtree full")
	}
	if err := b.db.PutManualClaim(caller, idx, claim.TxHash); err != nil {
		return err
	}

	globalRoot, err := b.manualClaimGlobalTree.Append(manualClaimGlobalLeaf(caller, newUserRoot))
	if err != nil {
		return bridgeerr.Cap(bridgeerr.CodeTreeFull, "bridgehost: manual-claim global tree full")
	}
	b.manualClaimTxoRoot = globalRoot
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	return nil
}

// manualClaimGlobalLeaf binds a manual-claim global-tree leaf to both the
// claiming user and their post-claim subtree root, so two different users'
// claims can never produce colliding leaves.
func manualClaimGlobalLeaf(user principal.Principal, userRoot [32]byte) [32]byte {
	h := sha256.New()
	h.Write(user[:])
	h.Write(userRoot[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
