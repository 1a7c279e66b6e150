// Command bridge-node is a minimal operator harness over bridgehost.Bridge:
// flags pick the on-disk deployment (matching the reference node binary's
// flag-based startup), then a single JSON request read from stdin drives one
// operation and a single JSON response is written to stdout (matching the
// reference consensus-cli binary's op-dispatch request/response idiom). It
// is not a production operator tool — no proving, no P2P, no persistent
// server loop — just enough surface to initialize a bridge, inspect its
// state, and drive the withdrawal and fee entrypoints that don't require a
// genuine Groth16 proof.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"dogebridge.dev/core/bridgehost"
	"dogebridge.dev/core/config"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/store"
	"dogebridge.dev/core/wire"
	"dogebridge.dev/core/zkverify"
)

type Request struct {
	Op string `json:"op"`

	OperatorPubkeyHex string `json:"operator_pubkey_hex,omitempty"`
	WrappedMintHex    string `json:"wrapped_mint_hex,omitempty"`
	CustodianHashHex  string `json:"custodian_hash_hex,omitempty"`

	AmountSats  uint64 `json:"amount_sats,omitempty"`
	AddressType uint32 `json:"address_type,omitempty"`
	RecipientHex string `json:"recipient_hex,omitempty"`
}

type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	Tip             uint32 `json:"tip_height,omitempty"`
	Finalized       uint32 `json:"finalized_height,omitempty"`
	BridgeStateHash string `json:"bridge_state_hash,omitempty"`
	ReturnSighash   string `json:"return_sighash,omitempty"`

	WithdrawalIndex uint64 `json:"withdrawal_index,omitempty"`
	SnapshotSlot    uint32 `json:"snapshot_slot,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses flags from args, opens the bridge, dispatches exactly one
// stdin-JSON request to stdout, and returns a process exit code. Factored
// out of main so tests can drive it without a subprocess.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defaults := config.DefaultConfig()
	cfg := defaults
	fs := flag.NewFlagSet("bridge-node", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "bridge data directory")
	fs.StringVar(&cfg.BridgeIDHex, "bridge-id", defaults.BridgeIDHex, "32-byte bridge id, hex")
	feeBps := fs.Int("deposit-fee-bps", int(defaults.DepositFeeBps), "deposit fee in basis points")
	withdrawBps := fs.Int("withdrawal-fee-bps", int(defaults.WithdrawalFeeBps), "withdrawal fee in basis points")
	flatFee := fs.Uint64("flat-fee-sats", defaults.FlatFeeSats, "flat fee per withdrawal, satoshis")
	reorgDepth := fs.Uint("reorg-depth-limit", uint(defaults.ReorgDepthLimit), "reorg depth limit recorded in the bridge config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.DepositFeeBps = uint16(*feeBps)
	cfg.WithdrawalFeeBps = uint16(*withdrawBps)
	cfg.FlatFeeSats = *flatFee
	cfg.ReorgDepthLimit = uint32(*reorgDepth)

	if cfg.BridgeIDHex == "" {
		_, _ = fmt.Fprintln(stderr, "bridge-node: -bridge-id is required")
		return 2
	}

	db, err := store.Open(cfg.DataDir, cfg.BridgeIDHex)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "bridge-node: open store: %v\n", err)
		return 2
	}
	defer func() { _ = db.Close() }()

	mock := zkverify.NewMockVerifier([32]byte{})
	verifiers := bridgehost.Verifiers{
		BlockUpdate:         mock,
		Reorg:               mock,
		ManualDeposit:       mock,
		Withdrawal:          mock,
		CustodianTransition: mock,
	}
	bridge := bridgehost.New(db, verifiers, principal.TrivialVerifier, bridgehost.NewInMemoryEmitter())

	var req Request
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		writeResp(stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return 0
	}

	switch req.Op {
	case "initialize":
		handleInitialize(stdout, bridge, req, cfg)
	case "status":
		handleStatus(stdout, bridge)
	case "request_withdrawal":
		handleRequestWithdrawal(stdout, bridge, req)
	case "snapshot_withdrawals":
		handleSnapshotWithdrawals(stdout, bridge, req)
	case "operator_withdraw_fees":
		handleOperatorWithdrawFees(stdout, bridge, req)
	default:
		writeResp(stdout, Response{Ok: false, Err: "unknown op"})
	}
	return 0
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func handleInitialize(w io.Writer, bridge *bridgehost.Bridge, req Request, cfg config.Config) {
	operator, err := decodeHex32(req.OperatorPubkeyHex)
	if err != nil {
		writeResp(w, Response{Ok: false, Err: "bad operator_pubkey_hex: " + err.Error()})
		return
	}
	wrappedMint, err := decodeHex32(req.WrappedMintHex)
	if err != nil {
		writeResp(w, Response{Ok: false, Err: "bad wrapped_mint_hex: " + err.Error()})
		return
	}
	custodianHash, err := decodeHex32(req.CustodianHashHex)
	if err != nil {
		writeResp(w, Response{Ok: false, Err: "bad custodian_hash_hex: " + err.Error()})
		return
	}

	cfgWire := wire.BridgeConfig{
		Operator:         operator,
		DepositFeeBps:    cfg.DepositFeeBps,
		WithdrawalFeeBps: cfg.WithdrawalFeeBps,
		FlatFeeSats:      cfg.FlatFeeSats,
		ReorgDepthLimit:  cfg.ReorgDepthLimit,
	}
	if err := bridge.Initialize(principal.Principal(operator), wrappedMint, cfgWire, wire.ReturnTxOutput{}, custodianHash); err != nil {
		writeResp(w, Response{Ok: false, Err: err.Error()})
		return
	}
	handleStatus(w, bridge)
}

func handleStatus(w io.Writer, bridge *bridgehost.Bridge) {
	h := bridge.Header()
	r := bridge.ReturnUTXO()
	writeResp(w, Response{
		Ok:              true,
		Tip:             h.Tip.BlockHeight,
		Finalized:       h.Finalized.BlockHeight,
		BridgeStateHash: hex.EncodeToString(h.BridgeStateHash[:]),
		ReturnSighash:   hex.EncodeToString(r.Sighash[:]),
	})
}

func handleRequestWithdrawal(w io.Writer, bridge *bridgehost.Bridge, req Request) {
	recipientBytes, err := hex.DecodeString(req.RecipientHex)
	if err != nil || len(recipientBytes) != 20 {
		writeResp(w, Response{Ok: false, Err: "bad recipient_hex: want 20 bytes"})
		return
	}
	var recipient [20]byte
	copy(recipient[:], recipientBytes)

	idx, err := bridge.RequestWithdrawal(wire.WithdrawalRequest{
		AmountSats:  req.AmountSats,
		AddressType: req.AddressType,
		Recipient:   recipient,
	})
	if err != nil {
		writeResp(w, Response{Ok: false, Err: err.Error()})
		return
	}
	writeResp(w, Response{Ok: true, WithdrawalIndex: idx})
}

func handleSnapshotWithdrawals(w io.Writer, bridge *bridgehost.Bridge, req Request) {
	operator, err := decodeHex32(req.OperatorPubkeyHex)
	if err != nil {
		writeResp(w, Response{Ok: false, Err: "bad operator_pubkey_hex: " + err.Error()})
		return
	}
	slot, err := bridge.SnapshotWithdrawals(principal.Principal(operator))
	if err != nil {
		writeResp(w, Response{Ok: false, Err: err.Error()})
		return
	}
	writeResp(w, Response{Ok: true, SnapshotSlot: slot})
}

func handleOperatorWithdrawFees(w io.Writer, bridge *bridgehost.Bridge, req Request) {
	operator, err := decodeHex32(req.OperatorPubkeyHex)
	if err != nil {
		writeResp(w, Response{Ok: false, Err: "bad operator_pubkey_hex: " + err.Error()})
		return
	}
	if err := bridge.OperatorWithdrawFees(principal.Principal(operator), req.AmountSats); err != nil {
		writeResp(w, Response{Ok: false, Err: err.Error()})
		return
	}
	writeResp(w, Response{Ok: true})
}
