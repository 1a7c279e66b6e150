package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dogebridge.dev/core/wire"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir, "deadbeef")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenUninitializedHasNilManifest(t *testing.T) {
	db := openTestDB(t)
	require.Nil(t, db.Manifest())
}

func TestManifestRoundTripsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, "cafef00d")
	require.NoError(t, err)

	header := wire.BridgeHeader{PausedUntilSecs: 42}
	m := NewManifest("cafef00d", header)
	require.NoError(t, db.SetManifest(m))
	require.NoError(t, db.Close())

	db2, err := Open(dir, "cafef00d")
	require.NoError(t, err)
	defer db2.Close()

	require.NotNil(t, db2.Manifest())
	got, err := db2.Manifest().HeaderOf()
	require.NoError(t, err)
	require.Equal(t, header, got)
}

func TestWithdrawalRequestRoundTrip(t *testing.T) {
	db := openTestDB(t)
	req := wire.WithdrawalRequest{AmountSats: 100, AddressType: 1}
	require.NoError(t, db.PutWithdrawalRequest(3, req))
	got, ok, err := db.GetWithdrawalRequest(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, req, got)

	_, ok, err = db.GetWithdrawalRequest(4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDepositRecordRoundTrip(t *testing.T) {
	db := openTestDB(t)
	rec := wire.DepositRecord{CombinedTxoIndex: 9}
	require.NoError(t, db.PutDepositRecord(0, rec))
	got, ok, err := db.GetDepositRecord(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)
}

func TestManualClaimTracksPerUser(t *testing.T) {
	db := openTestDB(t)
	user := [32]byte{1}
	txHash := [32]byte{2}
	ok, err := db.HasManualClaim(user, txHash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.PutManualClaim(user, 0, txHash))
	ok, err = db.HasManualClaim(user, txHash)
	require.NoError(t, err)
	require.True(t, ok)

	otherUser := [32]byte{9}
	ok, err = db.HasManualClaim(otherUser, txHash)
	require.NoError(t, err)
	require.False(t, ok, "claims must not leak across users")
}

func TestBufferPayloadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.PutBufferPayload("withdraw-buf-1", []byte("dogecoin tx bytes")))
	got, ok, err := db.GetBufferPayload("withdraw-buf-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("dogecoin tx bytes"), got)
}
