package bridgehost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/wire"
	"dogebridge.dev/core/zkverify"
)

func TestReorgDepthThreeSkipsIntermediateBlocks(t *testing.T) {
	b, operator := newTestBridge(t)

	mintBuf0, txoBuf0 := stageAndFinalizeBuffers(t, operator, nil, 0, 1, 1)
	advanceTip(t, b, operator, mintBuf0, txoBuf0, 1)

	extra := []wire.FinalizedBlockMintTxoInfo{
		{PendingMintsFinalizedHash: [32]byte{2}, TxoOutputListFinalizedHash: [32]byte{3}},
		{PendingMintsFinalizedHash: [32]byte{4}, TxoOutputListFinalizedHash: [32]byte{5}},
	}
	mintBuf, txoBuf := stageAndFinalizeBuffers(t, operator, nil, 0, 2, 4)

	cur := b.Header()
	newHeader := cur
	newHeader.Tip.BlockHeight = 4
	newHeader.Tip.BlockHash = [32]byte{4}
	newHeader.Tip.PendingMintsFinalizedHash = mintBuf.ContentHash()
	newHeader.Tip.TxoOutputListFinalizedHash = txoBuf.ContentHash()
	newHeader.BridgeStateHash = b.computeBridgeStateHash()

	inputs := [][32]byte{
		commitmentDigest(cur.Finalized),
		commitmentDigest(newHeader.Tip),
		commitmentDigest(newHeader.Finalized),
		newHeader.BridgeStateHash,
		mintBuf.ContentHash(),
		txoBuf.ContentHash(),
		sha256Of(b.returnUTXO.Encode()),
		extraBlocksCommitment(extra),
	}
	b.verifiers.Reorg = zkverify.NewMockVerifierForInputs(inputs)

	require.NoError(t, b.ProcessReorgBlocks(operator, wire.CompactProof{}, newHeader, extra, mintBuf, txoBuf))
	require.Equal(t, uint32(4), b.Header().Tip.BlockHeight)
}

func TestReorgExtraBlocksBoundary(t *testing.T) {
	require.Equal(t, ReorgDepth-1, MaxReorgExtraBlocks)

	b, operator := newTestBridge(t)
	mintBuf0, txoBuf0 := stageAndFinalizeBuffers(t, operator, nil, 0, 1, 1)
	advanceTip(t, b, operator, mintBuf0, txoBuf0, 1)

	tooMany := make([]wire.FinalizedBlockMintTxoInfo, MaxReorgExtraBlocks+1)
	mintBuf, txoBuf := stageAndFinalizeBuffers(t, operator, nil, 0, 2, 2)

	newHeader := b.Header()
	newHeader.Tip.BlockHeight = 2

	err := b.ProcessReorgBlocks(operator, wire.CompactProof{}, newHeader, tooMany, mintBuf, txoBuf)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeBufferTooLarge))
}

func TestReorgRejectsFinalizedMovingForward(t *testing.T) {
	b, operator := newTestBridge(t)
	mintBuf0, txoBuf0 := stageAndFinalizeBuffers(t, operator, nil, 0, 1, 1)
	advanceTip(t, b, operator, mintBuf0, txoBuf0, 1)

	mintBuf, txoBuf := stageAndFinalizeBuffers(t, operator, nil, 0, 2, 2)
	newHeader := b.Header()
	newHeader.Tip.BlockHeight = 2
	newHeader.Finalized.BlockHeight = 1 // finalized must never move during a reorg

	err := b.ProcessReorgBlocks(operator, wire.CompactProof{}, newHeader, nil, mintBuf, txoBuf)
	require.Error(t, err)
	require.True(t, bridgeerr.Is(err, bridgeerr.CodeHeightMismatch))
}
