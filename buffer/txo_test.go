package buffer

import (
	"testing"

	"dogebridge.dev/core/principal"
)

func TestTxoBufferSetLenAndWrite(t *testing.T) {
	writer := principal.Principal{1}
	var b TxoBuffer
	if err := b.Init(writer); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLen(writer, 4, true, 1, 100, false); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(writer, 1, 0, 7); err != nil {
		t.Fatal(err)
	}
	if b.Indices()[0] != 7 {
		t.Fatalf("write did not take effect")
	}
}

func TestTxoBufferRejectsStaleBatch(t *testing.T) {
	writer := principal.Principal{1}
	var b TxoBuffer
	_ = b.Init(writer)
	_ = b.SetLen(writer, 2, true, 5, 100, false)
	if err := b.SetLen(writer, 2, true, 4, 100, false); err == nil {
		t.Fatalf("expected stale batch id to be rejected")
	}
}

func TestTxoBufferFinalizeBlocksWrites(t *testing.T) {
	writer := principal.Principal{1}
	var b TxoBuffer
	_ = b.Init(writer)
	_ = b.SetLen(writer, 2, true, 1, 100, true)
	if err := b.Write(writer, 1, 0, 1); err == nil {
		t.Fatalf("write should fail once finalized")
	}
}

func TestTxoBufferShrinkRequiresResize(t *testing.T) {
	writer := principal.Principal{1}
	var b TxoBuffer
	_ = b.Init(writer)
	_ = b.SetLen(writer, 4, true, 1, 100, false)
	if err := b.SetLen(writer, 2, false, 1, 100, false); err == nil {
		t.Fatalf("shrink without resize should fail")
	}
}
