package bridgehost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/buffer"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
	"dogebridge.dev/core/zkverify"
)

func frozenGenericBuffer(t *testing.T, payload []byte) *buffer.GenericBuffer {
	t.Helper()
	g := &buffer.GenericBuffer{}
	require.NoError(t, g.Init(len(payload)))
	require.NoError(t, g.Write(0, payload))
	_, err := g.Freeze()
	require.NoError(t, err)
	return g
}

func TestWithdrawalRoundTripThenReplay(t *testing.T) {
	b, operator := newTestBridge(t)

	req := wire.WithdrawalRequest{AmountSats: 777, AddressType: 1, Recipient: [20]byte{1}}
	idx, err := b.RequestWithdrawal(req)
	require.NoError(t, err)
	require.Equal(t, uint64(0), idx)

	slot, err := b.SnapshotWithdrawals(operator)
	require.NoError(t, err)
	snap, ok, err := b.db.GetWithdrawalSnapshot(slot)
	require.NoError(t, err)
	require.True(t, ok)

	dogeTxBuf := frozenGenericBuffer(t, []byte("dogecoin payout tx bytes"))
	newReturn := wire.ReturnTxOutput{Sighash: [32]byte{9}, AmountSats: 500}
	newSpentRoot := [32]byte{1, 1, 1}

	sighash := dogeTxBuf.Sighash()
	inputs := [][32]byte{
		sighash,
		sha256Of(b.returnUTXO.Encode()),
		sha256Of(newReturn.Encode()),
		b.spentTxoTreeRoot,
		newSpentRoot,
		snap.WithdrawalsMerkleRoot,
		u64Digest(b.nextProcessedWithdrawalsIndex),
		u64Digest(1),
		b.custodianConfigDigest(),
	}
	b.verifiers.Withdrawal = zkverify.NewMockVerifierForInputs(inputs)

	require.NoError(t, b.ProcessWithdrawal(operator, wire.CompactProof{}, newReturn, newSpentRoot, 1, slot, dogeTxBuf))
	require.Equal(t, newReturn, b.ReturnUTXO())

	seq, err := b.ProcessReplayWithdrawal(operator, dogeTxBuf)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq, "process_withdrawal already emitted sequence 0 on this topic")
}

func TestReplayWithdrawalRejectsMismatchedSighash(t *testing.T) {
	b, operator := newTestBridge(t)
	other := frozenGenericBuffer(t, []byte("unrelated payout bytes"))

	_, err := b.ProcessReplayWithdrawal(operator, other)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeSighashMismatch))
}

func TestOperatorWithdrawFeesRejectsOverdraw(t *testing.T) {
	b, operator := newTestBridge(t)
	err := b.OperatorWithdrawFees(operator, 1)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeInsufficientFees))
}

func TestSnapshotWithdrawalsRequiresOperator(t *testing.T) {
	b, _ := newTestBridge(t)
	impostor := principal.Principal{0xFF}
	_, err := b.SnapshotWithdrawals(impostor)
	require.Error(t, err)
}

func TestProcessWithdrawalRejectsSnapshotNotMatchingCommittedDigest(t *testing.T) {
	b, operator := newTestBridge(t)

	_, err := b.RequestWithdrawal(wire.WithdrawalRequest{AmountSats: 777, AddressType: 1, Recipient: [20]byte{1}})
	require.NoError(t, err)
	slot, err := b.SnapshotWithdrawals(operator)
	require.NoError(t, err)

	// overwrite the stored snapshot at that slot out from under the ring
	// digest bridge_state_hash committed to, simulating substitution.
	require.NoError(t, b.db.PutWithdrawalSnapshot(slot, wire.WithdrawalChainSnapshot{NextWithdrawalIndex: 999}))

	dogeTxBuf := frozenGenericBuffer(t, []byte("dogecoin payout tx bytes"))
	err = b.ProcessWithdrawal(operator, wire.CompactProof{}, wire.ReturnTxOutput{}, [32]byte{}, 1, slot, dogeTxBuf)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeStateHashMismatch))
}
