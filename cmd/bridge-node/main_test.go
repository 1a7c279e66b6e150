package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runRequest(t *testing.T, datadir string, req Request) Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	code := run([]string{"--datadir", datadir, "--bridge-id", "deadbeef"}, bytes.NewReader(body), &out, &errOut)
	require.Equal(t, 0, code, "stderr: %s", errOut.String())

	var resp Response
	require.NoError(t, json.NewDecoder(&out).Decode(&resp))
	return resp
}

func TestRunRequiresBridgeID(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"--datadir", t.TempDir()}, strings.NewReader(`{"op":"status"}`), &out, &errOut)
	require.Equal(t, 2, code)
	require.Contains(t, errOut.String(), "bridge-id")
}

// TestRunInitializeThenStatus covers one process invocation: handleInitialize
// itself chains into handleStatus on success, so both are exercised by a
// single request. Each run() call opens its own in-memory Bridge with no
// state carried to the next invocation, so this harness cannot express a
// separate-process "initialize, then a later status/duplicate-initialize"
// sequence.
func TestRunInitializeThenStatus(t *testing.T) {
	dir := t.TempDir()
	operatorHex := strings.Repeat("ab", 32)
	mintHex := strings.Repeat("cd", 32)
	custodianHex := strings.Repeat("ef", 32)

	resp := runRequest(t, dir, Request{
		Op:                "initialize",
		OperatorPubkeyHex: operatorHex,
		WrappedMintHex:    mintHex,
		CustodianHashHex:  custodianHex,
	})
	require.True(t, resp.Ok, resp.Err)
	require.Equal(t, uint32(0), resp.Tip)
	require.NotEmpty(t, resp.BridgeStateHash)
}

// TestRunStatusOnFreshBridge documents that "status" never fails: Header and
// ReturnUTXO read zero-value fields on an uninitialized Bridge rather than
// going through requireInitialized.
func TestRunStatusOnFreshBridge(t *testing.T) {
	dir := t.TempDir()
	resp := runRequest(t, dir, Request{Op: "status"})
	require.True(t, resp.Ok)
	require.Equal(t, uint32(0), resp.Tip)
}

func TestRunUnknownOp(t *testing.T) {
	dir := t.TempDir()
	resp := runRequest(t, dir, Request{Op: "frobnicate"})
	require.False(t, resp.Ok)
	require.Equal(t, "unknown op", resp.Err)
}

func TestRunRequestWithdrawalBeforeInitializeFails(t *testing.T) {
	dir := t.TempDir()
	resp := runRequest(t, dir, Request{Op: "request_withdrawal", AmountSats: 10, RecipientHex: strings.Repeat("11", 20)})
	require.False(t, resp.Ok)
}
