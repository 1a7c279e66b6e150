package wire

import (
	"encoding/binary"
	"fmt"
)

// WithdrawalRequest is one user's burn-and-withdraw request, anchored to a
// monotonically increasing index in the withdrawal tree. Its size is not
// externally mandated by the specification (unlike the structs in wire.go),
// but its layout is still little-endian and fixed for the same reason:
// it is hashed into the withdrawal tree's leaves.
type WithdrawalRequest struct {
	AmountSats  uint64
	AddressType uint32
	Recipient   [20]byte
}

const SizeWithdrawalRequest = 8 + 4 + 20

func (r WithdrawalRequest) Encode() []byte {
	out := make([]byte, SizeWithdrawalRequest)
	binary.LittleEndian.PutUint64(out[0:8], r.AmountSats)
	binary.LittleEndian.PutUint32(out[8:12], r.AddressType)
	copy(out[12:], r.Recipient[:])
	return out
}

func DecodeWithdrawalRequest(b []byte) (WithdrawalRequest, error) {
	var r WithdrawalRequest
	if len(b) != SizeWithdrawalRequest {
		return r, sizeErr("withdrawal request", SizeWithdrawalRequest, len(b))
	}
	r.AmountSats = binary.LittleEndian.Uint64(b[0:8])
	r.AddressType = binary.LittleEndian.Uint32(b[8:12])
	copy(r.Recipient[:], b[12:])
	return r, nil
}

// WithdrawalChainSnapshot is one entry of the withdrawal snapshot ring: a
// committed (nextWithdrawalIndex, withdrawalsMerkleRoot) pair a withdrawal
// proof can reference without racing concurrent new requests.
type WithdrawalChainSnapshot struct {
	NextWithdrawalIndex   uint64
	WithdrawalsMerkleRoot [32]byte
}

const SizeWithdrawalChainSnapshot = 8 + 32

func (s WithdrawalChainSnapshot) Encode() []byte {
	out := make([]byte, SizeWithdrawalChainSnapshot)
	binary.LittleEndian.PutUint64(out[0:8], s.NextWithdrawalIndex)
	copy(out[8:], s.WithdrawalsMerkleRoot[:])
	return out
}

func DecodeWithdrawalChainSnapshot(b []byte) (WithdrawalChainSnapshot, error) {
	var s WithdrawalChainSnapshot
	if len(b) != SizeWithdrawalChainSnapshot {
		return s, sizeErr("withdrawal chain snapshot", SizeWithdrawalChainSnapshot, len(b))
	}
	s.NextWithdrawalIndex = binary.LittleEndian.Uint64(b[0:8])
	copy(s.WithdrawalsMerkleRoot[:], b[8:])
	return s, nil
}

// DepositRecord is one auto-claimed deposit: the Dogecoin transaction hash
// and the combined TXO index it was inserted under. Recipient and amount
// are tracked separately in the pending-mint buffer; this is only the
// half that anchors the auto-claim tree leaf.
type DepositRecord struct {
	TxHash           [32]byte
	CombinedTxoIndex uint64
}

const SizeDepositRecord = 32 + 8

func (d DepositRecord) Encode() []byte {
	out := make([]byte, SizeDepositRecord)
	copy(out[0:32], d.TxHash[:])
	binary.LittleEndian.PutUint64(out[32:40], d.CombinedTxoIndex)
	return out
}

func DecodeDepositRecord(b []byte) (DepositRecord, error) {
	var d DepositRecord
	if len(b) != SizeDepositRecord {
		return d, sizeErr("deposit record", SizeDepositRecord, len(b))
	}
	copy(d.TxHash[:], b[0:32])
	d.CombinedTxoIndex = binary.LittleEndian.Uint64(b[32:40])
	return d, nil
}

func sizeErr(what string, want, got int) error {
	return fmt.Errorf("wire: %s: want %d bytes, got %d", what, want, got)
}
