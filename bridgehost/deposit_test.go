package bridgehost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/wire"
	"dogebridge.dev/core/zkverify"
)

func TestManualDepositAcceptsThenRejectsDuplicate(t *testing.T) {
	b, _ := newTestBridge(t)
	user := principal.Principal{0x10}
	claim := wire.ManualClaimInstructionData{TxHash: [32]byte{7}, CombinedTxoIndex: 3, RecipientPubkey: [32]byte(user), AmountSats: 100}

	subtree := b.manualClaimSubtree(user)
	oldRoot := subtree.Root()
	newRoot, err := subtree.PreviewAppend(claim.TxHash)
	require.NoError(t, err)
	b.verifiers.ManualDeposit = zkverify.NewMockVerifierForInputs([][32]byte{
		claim.TxHash, claim.RecipientPubkey, u64Digest(claim.CombinedTxoIndex), u64Digest(claim.AmountSats),
		claim.RecentBlockMerkleTreeRoot, claim.RecentAutoClaimTxoRoot, oldRoot, newRoot,
	})

	require.NoError(t, b.ProcessManualDeposit(user, claim))
	require.Equal(t, uint64(1), subtree.NextIndex())

	err = b.ProcessManualDeposit(user, claim)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeDepositAlreadyClaimed))
}

func TestManualDepositRejectsStaleRecencyAnchor(t *testing.T) {
	b, _ := newTestBridge(t)
	user := principal.Principal{0x11}
	claim := wire.ManualClaimInstructionData{
		TxHash:                    [32]byte{8},
		RecentBlockMerkleTreeRoot: [32]byte{1}, // does not match the fresh header's zero root
	}
	err := b.ProcessManualDeposit(user, claim)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeStateHashMismatch))
}

func TestManualDepositBlockedDuringPausedCustodianTransition(t *testing.T) {
	b, operator := newTestBridge(t)
	require.NoError(t, b.NotifyCustodianTransition(operator, [32]byte{9}, 0))
	require.NoError(t, b.PauseCustodianTransition(operator, 7200))

	user := principal.Principal{0x20}
	err := b.ProcessManualDeposit(user, wire.ManualClaimInstructionData{TxHash: [32]byte{1}})
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeDepositsBlocked))
}
