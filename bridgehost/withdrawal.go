package bridgehost

import (
	"crypto/sha256"
	"encoding/binary"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/buffer"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

const withdrawalTopic = "withdrawal"
const custodianTransitionTopic = "custodian-transition"

// RequestWithdrawal (opcode 2) assigns the next strict-FIFO withdrawal index
// and appends the request to the withdrawal tree (SPEC_FULL §4.7).
func (b *Bridge) RequestWithdrawal(req wire.WithdrawalRequest) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return 0, err
	}
	idx := b.nextWithdrawalIndex
	leaf := sha256.Sum256(req.Encode())
	if _, err := b.withdrawalTree.Append(leaf); err != nil {
		return 0, bridgeerr.Cap(bridgeerr.CodeTreeFull, "bridgehost: withdrawal tree full")
	}
	if err := b.db.PutWithdrawalRequest(idx, req); err != nil {
		return 0, err
	}
	b.nextWithdrawalIndex++
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	return idx, nil
}

// SnapshotWithdrawals (opcode 10) promotes the current withdrawal watermark
// into the next ring slot, overwriting the oldest entry once the ring wraps.
func (b *Bridge) SnapshotWithdrawals(caller principal.Principal) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return 0, err
	}
	if err := b.requireOperator(caller); err != nil {
		return 0, err
	}
	slot := b.snapshotNextSlot % b.snapshotRingSize
	snap := wire.WithdrawalChainSnapshot{
		NextWithdrawalIndex:   b.nextWithdrawalIndex,
		WithdrawalsMerkleRoot: b.withdrawalTree.Root(),
	}
	if err := b.db.PutWithdrawalSnapshot(slot, snap); err != nil {
		return 0, err
	}
	b.snapshotDigests[slot] = sha256Of(snap.Encode())
	b.snapshotNextSlot++
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	return slot, nil
}

func u64Digest(n uint64) [32]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return sha256.Sum256(b[:])
}

func (b *Bridge) custodianConfigDigest() [32]byte {
	h := sha256.New()
	h.Write(b.bridgeConfig.Encode())
	h.Write(b.custodianHash[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ProcessWithdrawal (opcode 3) verifies a proof that the custodian correctly
// paid out a batch of withdrawals from a snapshot and rotates the return-UTXO
// and spent-output tracking accordingly (SPEC_FULL §4.7).
func (b *Bridge) ProcessWithdrawal(caller principal.Principal, proof wire.CompactProof, newReturn wire.ReturnTxOutput, newSpentTxoTreeRoot [32]byte, newNextProcessedIdx uint64, snapshotSlot uint32, dogeTxBuf *buffer.GenericBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	if newNextProcessedIdx <= b.nextProcessedWithdrawalsIndex {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: next_processed_withdrawals_index must advance")
	}
	if dogeTxBuf.State() != buffer.GenericFrozen {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: doge tx buffer not frozen")
	}
	if snapshotSlot >= b.snapshotRingSize {
		return bridgeerr.Precond(bridgeerr.CodeHeightMismatch, "bridgehost: snapshot slot out of range")
	}
	snap, ok, err := b.db.GetWithdrawalSnapshot(snapshotSlot)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: referenced snapshot slot is empty")
	}
	if sha256Of(snap.Encode()) != b.snapshotDigests[snapshotSlot] {
		return bridgeerr.Integ(bridgeerr.CodeStateHashMismatch, "bridgehost: stored snapshot does not match committed ring digest")
	}

	sighash := dogeTxBuf.Sighash()
	publicInputs := [][32]byte{
		sighash,
		sha256Of(b.returnUTXO.Encode()),
		sha256Of(newReturn.Encode()),
		b.spentTxoTreeRoot,
		newSpentTxoTreeRoot,
		snap.WithdrawalsMerkleRoot,
		u64Digest(b.nextProcessedWithdrawalsIndex),
		u64Digest(newNextProcessedIdx),
		b.custodianConfigDigest(),
	}
	ok, err = b.verifiers.Withdrawal.Verify(publicInputs, proof)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Integ(bridgeerr.CodeInvalidProof, "bridgehost: process_withdrawal proof rejected")
	}

	b.returnUTXO = newReturn
	b.spentTxoTreeRoot = newSpentTxoTreeRoot
	b.nextProcessedWithdrawalsIndex = newNextProcessedIdx
	b.lastProcessedWithdrawalSighash = sighash
	b.header.BridgeStateHash = b.computeBridgeStateHash()

	_, err = b.emitter.Emit(withdrawalTopic, sighash[:])
	return err
}

// ProcessReplayWithdrawal (opcode 6) re-emits the outbound message for the
// most recently processed withdrawal without touching state, for federated
// signer retry (SPEC_FULL §4.7).
func (b *Bridge) ProcessReplayWithdrawal(caller principal.Principal, dogeTxBuf *buffer.GenericBuffer) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return 0, err
	}
	if err := b.requireOperator(caller); err != nil {
		return 0, err
	}
	if dogeTxBuf.State() != buffer.GenericFrozen {
		return 0, bridgeerr.Precond(bridgeerr.CodeBufferNotFrozen, "bridgehost: doge tx buffer not frozen")
	}
	sighash := dogeTxBuf.Sighash()
	if sighash != b.lastProcessedWithdrawalSighash {
		return 0, bridgeerr.Precond(bridgeerr.CodeSighashMismatch, "bridgehost: sighash does not match most recently processed withdrawal")
	}
	return b.emitter.Emit(withdrawalTopic, sighash[:])
}

// OperatorWithdrawFees (opcode 4) lets the operator draw down the
// fee balance accrued across finalized blocks.
func (b *Bridge) OperatorWithdrawFees(caller principal.Principal, amountSats uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	available := b.totalFinalizedFees - b.totalFeesWithdrawn
	if amountSats > available {
		return bridgeerr.Precond(bridgeerr.CodeInsufficientFees, "bridgehost: amount exceeds available fee balance")
	}
	b.totalFeesWithdrawn += amountSats
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	return nil
}
