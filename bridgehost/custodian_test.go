package bridgehost

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/custodian"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
	"dogebridge.dev/core/zkverify"
)

// acceptManualDeposit is the deposit_test.go happy path, factored out so
// custodian tests can cheaply raise the manual-claim global tree's
// next_index (and thus a transition's consolidation target) by a known
// amount.
func acceptManualDeposit(t *testing.T, b *Bridge, user principal.Principal, txHash [32]byte) {
	t.Helper()
	claim := wire.ManualClaimInstructionData{TxHash: txHash, RecipientPubkey: [32]byte(user)}
	subtree := b.manualClaimSubtree(user)
	oldRoot := subtree.Root()
	newRoot, err := subtree.PreviewAppend(claim.TxHash)
	require.NoError(t, err)
	b.verifiers.ManualDeposit = zkverify.NewMockVerifierForInputs([][32]byte{
		claim.TxHash, claim.RecipientPubkey, u64Digest(claim.CombinedTxoIndex), u64Digest(claim.AmountSats),
		claim.RecentBlockMerkleTreeRoot, claim.RecentAutoClaimTxoRoot, oldRoot, newRoot,
	})
	require.NoError(t, b.ProcessManualDeposit(user, claim))
}

func TestCustodianTransitionGracePeriodAndConsolidationBoundary(t *testing.T) {
	b, operator := newTestBridge(t)

	acceptManualDeposit(t, b, principal.Principal{0x30}, [32]byte{5})
	require.Equal(t, uint64(1), b.manualClaimGlobalTree.NextIndex())

	newCustodianHash := [32]byte{0x40}
	require.NoError(t, b.NotifyCustodianTransition(operator, newCustodianHash, 1000))

	// deposits made while PENDING stay unblocked and must still raise the
	// eventual consolidation target, since that target is recomputed fresh
	// at Process time rather than frozen at Notify time.
	acceptManualDeposit(t, b, principal.Principal{0x31}, [32]byte{6})
	require.Equal(t, uint64(2), b.manualClaimGlobalTree.NextIndex())
	require.Equal(t, uint64(2), b.consolidationTarget())

	require.Error(t, b.PauseCustodianTransition(operator, 1000+int64(custodian.GracePeriod.Seconds())-1))
	require.NoError(t, b.PauseCustodianTransition(operator, 1000+int64(custodian.GracePeriod.Seconds())))

	blocked := b.ProcessManualDeposit(principal.Principal{0x32}, wire.ManualClaimInstructionData{TxHash: [32]byte{7}})
	require.Error(t, blocked)
	require.True(t, bridgeerr.Is(blocked, bridgeerr.CodeDepositsBlocked))

	require.False(t, b.custodianTransition.ReadyToComplete(b.consolidationTarget()))
	require.NoError(t, b.RecordSpentCustodianDeposit(operator))
	require.False(t, b.custodianTransition.ReadyToComplete(b.consolidationTarget()), "only 1 of 2 spent")
	require.NoError(t, b.RecordSpentCustodianDeposit(operator))
	require.True(t, b.custodianTransition.ReadyToComplete(b.consolidationTarget()))

	oldReturn := b.ReturnUTXO()
	newReturn := wire.ReturnTxOutput{Sighash: [32]byte{0x50}, AmountSats: 321}

	h := sha256.New()
	h.Write(oldReturn.Encode())
	h.Write(newReturn.Encode())
	h.Write(b.custodianHash[:])
	h.Write(b.custodianTransition.IncomingHash[:])
	var combined [32]byte
	copy(combined[:], h.Sum(nil))
	b.verifiers.CustodianTransition = zkverify.NewMockVerifierForInputs([][32]byte{combined})

	require.NoError(t, b.ProcessCustodianTransition(operator, wire.CompactProof{}, newReturn))
	require.Equal(t, newCustodianHash, b.custodianHash)
	require.Equal(t, newReturn, b.ReturnUTXO())
	require.Equal(t, custodian.StateNone, b.custodianTransition.State)

	// deposits unblock again once the transition resets to NONE.
	acceptManualDeposit(t, b, principal.Principal{0x32}, [32]byte{7})
}

func TestCancelCustodianTransitionFromPending(t *testing.T) {
	b, operator := newTestBridge(t)
	require.NoError(t, b.NotifyCustodianTransition(operator, [32]byte{1}, 0))
	require.NoError(t, b.CancelCustodianTransition(operator))
	require.Equal(t, custodian.StateNone, b.custodianTransition.State)
	require.NoError(t, b.NotifyCustodianTransition(operator, [32]byte{2}, 0))
}

func TestProcessCustodianTransitionRejectsBeforePause(t *testing.T) {
	b, operator := newTestBridge(t)
	require.NoError(t, b.NotifyCustodianTransition(operator, [32]byte{1}, 0))
	err := b.ProcessCustodianTransition(operator, wire.CompactProof{}, wire.ReturnTxOutput{})
	require.Error(t, err)
}
