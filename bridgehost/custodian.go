package bridgehost

import (
	"crypto/sha256"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
)

// NotifyCustodianTransition (operator) begins a custodian handover:
// NONE -> PENDING. Deposits admitted while PENDING stay unblocked and still
// count toward consolidation, since the target is recomputed fresh from
// finalized state at ProcessCustodianTransition time rather than fixed here
// (SPEC_FULL §4.8).
func (b *Bridge) NotifyCustodianTransition(caller principal.Principal, newHash [32]byte, nowUnixSecs int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	return b.custodianTransition.Notify(newHash, nowUnixSecs)
}

// consolidationTarget is the number of deposit UTXOs (auto-claim plus
// manual-claim) that must be spent into the new custodian set before a
// transition can complete. Sourced from Finalized rather than Tip so it
// cannot be inflated, then rolled back, by a tip that later reorgs away;
// manual claims are proof-verified at admission time so they count as soon
// as accepted, with no separate finalization step of their own.
func (b *Bridge) consolidationTarget() uint64 {
	return uint64(b.header.Finalized.AutoClaimedDepositsNextIdx) + b.manualClaimGlobalTree.NextIndex()
}

// PauseCustodianTransition (operator) moves PENDING -> PAUSED once the grace
// period has elapsed. Deposit entrypoints start rejecting with
// DepositsBlockedDuringTransition from this point on.
func (b *Bridge) PauseCustodianTransition(caller principal.Principal, nowUnixSecs int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	return b.custodianTransition.Pause(nowUnixSecs)
}

// RecordSpentCustodianDeposit (operator) accounts one more deposit UTXO
// consolidated into the new custodian set, callable only while PAUSED.
func (b *Bridge) RecordSpentCustodianDeposit(caller principal.Principal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	return b.custodianTransition.RecordSpentDeposit()
}

// ProcessCustodianTransition (operator) verifies a proof that the old
// return-UTXO was transferred to a new one controlled by the new custodian
// set, then moves PAUSED -> COMPLETED and rotates the bridge's custodian
// identity (SPEC_FULL §4.8).
func (b *Bridge) ProcessCustodianTransition(caller principal.Principal, proof wire.CompactProof, newReturn wire.ReturnTxOutput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}

	h := sha256.New()
	h.Write(b.returnUTXO.Encode())
	h.Write(newReturn.Encode())
	h.Write(b.custodianHash[:])
	h.Write(b.custodianTransition.IncomingHash[:])
	var combined [32]byte
	copy(combined[:], h.Sum(nil))

	ok, err := b.verifiers.CustodianTransition.Verify([][32]byte{combined}, proof)
	if err != nil {
		return err
	}
	if !ok {
		return bridgeerr.Integ(bridgeerr.CodeInvalidProof, "bridgehost: process (custodian transition) proof rejected")
	}

	newHash := b.custodianTransition.IncomingHash
	if err := b.custodianTransition.Process(b.consolidationTarget()); err != nil {
		return err
	}

	b.returnUTXO = newReturn
	b.custodianHash = newHash
	b.custodianTransition.Reset()
	b.header.BridgeStateHash = b.computeBridgeStateHash()

	_, err = b.emitter.Emit(custodianTransitionTopic, combined[:])
	return err
}

// CancelCustodianTransition (operator) aborts a PENDING or PAUSED transition
// back to NONE, unblocking deposits immediately if they were blocked.
func (b *Bridge) CancelCustodianTransition(caller principal.Principal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireInitialized(); err != nil {
		return err
	}
	if err := b.requireOperator(caller); err != nil {
		return err
	}
	return b.custodianTransition.Cancel()
}
