package wire

import (
	"bytes"
	"testing"
)

func fill(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestStateCommitmentRoundTrip(t *testing.T) {
	c := StateCommitment{AutoClaimedDepositsNextIdx: 7, BlockHeight: 99}
	copy(c.BlockHash[:], fill(32))
	enc := c.Encode()
	if len(enc) != SizeStateCommitment {
		t.Fatalf("encoded len = %d, want %d", len(enc), SizeStateCommitment)
	}
	dec, err := DecodeStateCommitment(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != c {
		t.Fatalf("round trip mismatch: %+v != %+v", dec, c)
	}
}

func TestBridgeHeaderRoundTrip(t *testing.T) {
	h := BridgeHeader{
		LastRollbackAtSecs:                      1,
		PausedUntilSecs:                         2,
		TotalFinalizedFeesCollectedChainHistory: 3,
	}
	copy(h.Tip.BlockHash[:], fill(32))
	enc := h.Encode()
	if len(enc) != SizeBridgeHeader {
		t.Fatalf("encoded len = %d, want %d", len(enc), SizeBridgeHeader)
	}
	dec, err := DecodeBridgeHeader(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != h {
		t.Fatalf("round trip mismatch")
	}
}

func TestManualClaimInstructionDataRoundTrip(t *testing.T) {
	var m ManualClaimInstructionData
	copy(m.TxHash[:], fill(32))
	m.CombinedTxoIndex = 42
	m.AmountSats = 100
	copy(m.Proof[:], bytes.Repeat([]byte{0xAB}, SizeCompactProof))
	enc := m.Encode()
	if len(enc) != SizeManualClaimInstructionData {
		t.Fatalf("encoded len = %d, want %d", len(enc), SizeManualClaimInstructionData)
	}
	dec, err := DecodeManualClaimInstructionData(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != m {
		t.Fatalf("round trip mismatch")
	}
}

func TestInstructionHeaderRoundTrip(t *testing.T) {
	h := InstructionHeader{Opcode: byte(OpBlockUpdate), BumpSeeds: [6]byte{1, 2, 3, 4, 5, 6}}
	enc := h.Encode()
	dec, err := DecodeInstructionHeader(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != h {
		t.Fatalf("round trip mismatch")
	}
}

func TestInstructionHeaderRejectsPaddingMismatch(t *testing.T) {
	b := make([]byte, SizeInstructionHeader)
	b[0] = byte(OpBlockUpdate)
	b[1] = byte(OpInitialize)
	if _, err := DecodeInstructionHeader(b); err == nil {
		t.Fatalf("expected error on opcode padding mismatch")
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := DecodeStateCommitment(make([]byte, SizeStateCommitment-1)); err == nil {
		t.Fatalf("expected error on short buffer")
	}
	if _, err := DecodePendingMint(make([]byte, SizePendingMint+1)); err == nil {
		t.Fatalf("expected error on long buffer")
	}
}

func FuzzStateCommitmentRoundTrip(f *testing.F) {
	f.Add(fill(SizeStateCommitment))
	f.Fuzz(func(t *testing.T, b []byte) {
		if len(b) != SizeStateCommitment {
			t.Skip()
		}
		c, err := DecodeStateCommitment(b)
		if err != nil {
			t.Skip()
		}
		if !bytes.Equal(c.Encode(), b) {
			t.Fatalf("round trip changed bytes")
		}
	})
}

func FuzzPendingMintRoundTrip(f *testing.F) {
	f.Add(fill(SizePendingMint))
	f.Fuzz(func(t *testing.T, b []byte) {
		if len(b) != SizePendingMint {
			t.Skip()
		}
		m, err := DecodePendingMint(b)
		if err != nil {
			t.Skip()
		}
		if !bytes.Equal(m.Encode(), b) {
			t.Fatalf("round trip changed bytes")
		}
	})
}
