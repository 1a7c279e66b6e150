// Package wire implements the bridge core's bit-exact, little-endian wire
// formats. Every struct here round-trips identically through Encode/Decode
// and its encoded length matches the size named in the specification:
// StateCommitment=200, BridgeHeader=448, ReturnTxOutput=48, BridgeConfig=48,
// PendingMint=40, FinalizedBlockMintTxoInfo=64, ManualClaimInstructionData=400,
// CompactProof=256.
//
// These are the structs a real proof's public-input schedule is built from,
// so the layout here is never renegotiated for Go convenience.
package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	SizeStateCommitment             = 200
	SizeBridgeHeader                = 448
	SizeReturnTxOutput              = 48
	SizeBridgeConfig                = 48
	SizePendingMint                 = 40
	SizeFinalizedBlockMintTxoInfo   = 64
	SizeManualClaimInstructionData  = 400
	SizeCompactProof                = 256
	SizeInstructionHeader           = 8
)

// StateCommitment is the bridge's view of one block: the accepted-chain
// merkle root and the finalized hashes of the two staging buffers at that
// block, plus the auto-claim deposit tree's root and watermark.
type StateCommitment struct {
	BlockHash                  [32]byte
	BlockMerkleTreeRoot        [32]byte
	PendingMintsFinalizedHash  [32]byte
	TxoOutputListFinalizedHash [32]byte
	AutoClaimedTxoTreeRoot     [32]byte
	AutoClaimedDepositsRoot    [32]byte
	AutoClaimedDepositsNextIdx uint32
	BlockHeight                uint32
}

func (c StateCommitment) Encode() []byte {
	out := make([]byte, SizeStateCommitment)
	off := 0
	off += copyField(out[off:], c.BlockHash[:])
	off += copyField(out[off:], c.BlockMerkleTreeRoot[:])
	off += copyField(out[off:], c.PendingMintsFinalizedHash[:])
	off += copyField(out[off:], c.TxoOutputListFinalizedHash[:])
	off += copyField(out[off:], c.AutoClaimedTxoTreeRoot[:])
	off += copyField(out[off:], c.AutoClaimedDepositsRoot[:])
	binary.LittleEndian.PutUint32(out[off:off+4], c.AutoClaimedDepositsNextIdx)
	off += 4
	binary.LittleEndian.PutUint32(out[off:off+4], c.BlockHeight)
	return out
}

func DecodeStateCommitment(b []byte) (StateCommitment, error) {
	var c StateCommitment
	if len(b) != SizeStateCommitment {
		return c, fmt.Errorf("wire: state commitment: want %d bytes, got %d", SizeStateCommitment, len(b))
	}
	off := 0
	off += copy(c.BlockHash[:], b[off:])
	off += copy(c.BlockMerkleTreeRoot[:], b[off:])
	off += copy(c.PendingMintsFinalizedHash[:], b[off:])
	off += copy(c.TxoOutputListFinalizedHash[:], b[off:])
	off += copy(c.AutoClaimedTxoTreeRoot[:], b[off:])
	off += copy(c.AutoClaimedDepositsRoot[:], b[off:])
	c.AutoClaimedDepositsNextIdx = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	c.BlockHeight = binary.LittleEndian.Uint32(b[off : off+4])
	return c, nil
}

// BridgeHeader is the payload supplied to block_update / process_reorg_blocks:
// the proposed new tip and finalized commitments, plus the ancillary state
// fields that bridge_state_hash binds.
type BridgeHeader struct {
	Tip                                     StateCommitment
	Finalized                               StateCommitment
	BridgeStateHash                         [32]byte
	LastRollbackAtSecs                      uint32
	PausedUntilSecs                         uint32
	TotalFinalizedFeesCollectedChainHistory uint64
}

func (h BridgeHeader) Encode() []byte {
	out := make([]byte, SizeBridgeHeader)
	off := 0
	off += copyField(out[off:], h.Tip.Encode())
	off += copyField(out[off:], h.Finalized.Encode())
	off += copyField(out[off:], h.BridgeStateHash[:])
	binary.LittleEndian.PutUint32(out[off:off+4], h.LastRollbackAtSecs)
	off += 4
	binary.LittleEndian.PutUint32(out[off:off+4], h.PausedUntilSecs)
	off += 4
	binary.LittleEndian.PutUint64(out[off:off+8], h.TotalFinalizedFeesCollectedChainHistory)
	return out
}

func DecodeBridgeHeader(b []byte) (BridgeHeader, error) {
	var h BridgeHeader
	if len(b) != SizeBridgeHeader {
		return h, fmt.Errorf("wire: bridge header: want %d bytes, got %d", SizeBridgeHeader, len(b))
	}
	var err error
	h.Tip, err = DecodeStateCommitment(b[0:SizeStateCommitment])
	if err != nil {
		return h, err
	}
	h.Finalized, err = DecodeStateCommitment(b[SizeStateCommitment : 2*SizeStateCommitment])
	if err != nil {
		return h, err
	}
	off := 2 * SizeStateCommitment
	off += copy(h.BridgeStateHash[:], b[off:])
	h.LastRollbackAtSecs = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	h.PausedUntilSecs = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	h.TotalFinalizedFeesCollectedChainHistory = binary.LittleEndian.Uint64(b[off : off+8])
	return h, nil
}

// ReturnTxOutput is the bridge's single custodial UTXO.
type ReturnTxOutput struct {
	Sighash     [32]byte
	OutputIndex uint64
	AmountSats  uint64
}

func (r ReturnTxOutput) Encode() []byte {
	out := make([]byte, SizeReturnTxOutput)
	off := copy(out, r.Sighash[:])
	binary.LittleEndian.PutUint64(out[off:off+8], r.OutputIndex)
	off += 8
	binary.LittleEndian.PutUint64(out[off:off+8], r.AmountSats)
	return out
}

func DecodeReturnTxOutput(b []byte) (ReturnTxOutput, error) {
	var r ReturnTxOutput
	if len(b) != SizeReturnTxOutput {
		return r, fmt.Errorf("wire: return tx output: want %d bytes, got %d", SizeReturnTxOutput, len(b))
	}
	off := copy(r.Sighash[:], b)
	r.OutputIndex = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	r.AmountSats = binary.LittleEndian.Uint64(b[off : off+8])
	return r, nil
}

// BridgeConfig carries the operator-set fee schedule and reorg tolerance.
type BridgeConfig struct {
	Operator          [32]byte
	DepositFeeBps     uint16
	WithdrawalFeeBps  uint16
	FlatFeeSats       uint64
	ReorgDepthLimit   uint32
}

func (c BridgeConfig) Encode() []byte {
	out := make([]byte, SizeBridgeConfig)
	off := copy(out, c.Operator[:])
	binary.LittleEndian.PutUint16(out[off:off+2], c.DepositFeeBps)
	off += 2
	binary.LittleEndian.PutUint16(out[off:off+2], c.WithdrawalFeeBps)
	off += 2
	binary.LittleEndian.PutUint64(out[off:off+8], c.FlatFeeSats)
	off += 8
	binary.LittleEndian.PutUint32(out[off:off+4], c.ReorgDepthLimit)
	return out
}

func DecodeBridgeConfig(b []byte) (BridgeConfig, error) {
	var c BridgeConfig
	if len(b) != SizeBridgeConfig {
		return c, fmt.Errorf("wire: bridge config: want %d bytes, got %d", SizeBridgeConfig, len(b))
	}
	off := copy(c.Operator[:], b)
	c.DepositFeeBps = binary.LittleEndian.Uint16(b[off : off+2])
	off += 2
	c.WithdrawalFeeBps = binary.LittleEndian.Uint16(b[off : off+2])
	off += 2
	c.FlatFeeSats = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	c.ReorgDepthLimit = binary.LittleEndian.Uint32(b[off : off+4])
	return c, nil
}

// PendingMint is one entry of the pending-mint buffer.
type PendingMint struct {
	Recipient [32]byte
	AmountSats uint64
}

func (m PendingMint) Encode() []byte {
	out := make([]byte, SizePendingMint)
	off := copy(out, m.Recipient[:])
	binary.LittleEndian.PutUint64(out[off:off+8], m.AmountSats)
	return out
}

func DecodePendingMint(b []byte) (PendingMint, error) {
	var m PendingMint
	if len(b) != SizePendingMint {
		return m, fmt.Errorf("wire: pending mint: want %d bytes, got %d", SizePendingMint, len(b))
	}
	off := copy(m.Recipient[:], b)
	m.AmountSats = binary.LittleEndian.Uint64(b[off : off+8])
	return m, nil
}

// FinalizedBlockMintTxoInfo is one extra_blocks entry of process_reorg_blocks:
// the finalized buffer hashes committed for a single intermediate block.
type FinalizedBlockMintTxoInfo struct {
	PendingMintsFinalizedHash  [32]byte
	TxoOutputListFinalizedHash [32]byte
}

func (f FinalizedBlockMintTxoInfo) Encode() []byte {
	out := make([]byte, SizeFinalizedBlockMintTxoInfo)
	off := copy(out, f.PendingMintsFinalizedHash[:])
	copy(out[off:], f.TxoOutputListFinalizedHash[:])
	return out
}

func DecodeFinalizedBlockMintTxoInfo(b []byte) (FinalizedBlockMintTxoInfo, error) {
	var f FinalizedBlockMintTxoInfo
	if len(b) != SizeFinalizedBlockMintTxoInfo {
		return f, fmt.Errorf("wire: finalized block mint/txo info: want %d bytes, got %d", SizeFinalizedBlockMintTxoInfo, len(b))
	}
	off := copy(f.PendingMintsFinalizedHash[:], b)
	copy(f.TxoOutputListFinalizedHash[:], b[off:])
	return f, nil
}

// CompactProof is the fixed-size Groth16 proof representation the verifier
// binding consumes: two G1 points and one G2 point, BN254-uncompressed
// (64 + 64 + 128 bytes).
type CompactProof [SizeCompactProof]byte

// ManualClaimInstructionData is the argument to the manual-claim entrypoint:
// the claimed deposit, the recency anchors the proof is checked against, and
// the compact proof itself.
type ManualClaimInstructionData struct {
	TxHash                    [32]byte
	CombinedTxoIndex          uint64
	RecipientPubkey           [32]byte
	AmountSats                uint64
	RecentBlockMerkleTreeRoot [32]byte
	RecentAutoClaimTxoRoot    [32]byte
	Proof                     CompactProof
}

func (m ManualClaimInstructionData) Encode() []byte {
	out := make([]byte, SizeManualClaimInstructionData)
	off := copy(out, m.TxHash[:])
	binary.LittleEndian.PutUint64(out[off:off+8], m.CombinedTxoIndex)
	off += 8
	off += copy(out[off:], m.RecipientPubkey[:])
	binary.LittleEndian.PutUint64(out[off:off+8], m.AmountSats)
	off += 8
	off += copy(out[off:], m.RecentBlockMerkleTreeRoot[:])
	off += copy(out[off:], m.RecentAutoClaimTxoRoot[:])
	copy(out[off:], m.Proof[:])
	return out
}

func DecodeManualClaimInstructionData(b []byte) (ManualClaimInstructionData, error) {
	var m ManualClaimInstructionData
	if len(b) != SizeManualClaimInstructionData {
		return m, fmt.Errorf("wire: manual claim instruction data: want %d bytes, got %d", SizeManualClaimInstructionData, len(b))
	}
	off := copy(m.TxHash[:], b)
	m.CombinedTxoIndex = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	off += copy(m.RecipientPubkey[:], b[off:])
	m.AmountSats = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	off += copy(m.RecentBlockMerkleTreeRoot[:], b[off:])
	off += copy(m.RecentAutoClaimTxoRoot[:], b[off:])
	copy(m.Proof[:], b[off:])
	return m, nil
}

// InstructionHeader is the 8-byte opcode-dispatch header that precedes every
// instruction's operation-specific payload: the opcode repeated in the first
// two bytes (decoding rejects a header whose two copies differ) followed by
// up to six bump-seed bytes for deterministic-address derivation.
type InstructionHeader struct {
	Opcode    byte
	BumpSeeds [6]byte
}

func (h InstructionHeader) Encode() []byte {
	out := make([]byte, SizeInstructionHeader)
	out[0] = h.Opcode
	out[1] = h.Opcode
	copy(out[2:], h.BumpSeeds[:])
	return out
}

func DecodeInstructionHeader(b []byte) (InstructionHeader, error) {
	var h InstructionHeader
	if len(b) != SizeInstructionHeader {
		return h, fmt.Errorf("wire: instruction header: want %d bytes, got %d", SizeInstructionHeader, len(b))
	}
	if b[0] != b[1] {
		return h, fmt.Errorf("wire: instruction header: opcode padding mismatch (%d != %d)", b[0], b[1])
	}
	h.Opcode = b[0]
	copy(h.BumpSeeds[:], b[2:])
	return h, nil
}

func copyField(dst, src []byte) int { return copy(dst, src) }
