// Package bridgehost is the bridge core's state-machine orchestrator: the
// single point every operation (§4 of SPEC_FULL.md) passes through. It
// holds the current tip/finalized commitments, the ancillary mutable state
// bridge_state_hash binds, and the deposit/withdrawal/manual-claim trees,
// and serializes every mutation behind one mutex — the Go-native
// equivalent of the host chain serializing conflicting mutations by
// declared account set (SPEC_FULL §5).
package bridgehost

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"dogebridge.dev/core/bridgeerr"
	"dogebridge.dev/core/custodian"
	"dogebridge.dev/core/merkle"
	"dogebridge.dev/core/principal"
	"dogebridge.dev/core/store"
	"dogebridge.dev/core/wire"
)

// ReorgDepth is the maximum tolerated gap between tip and finalized height
// (SPEC_FULL §3/§5/§8).
const ReorgDepth = 10

const bridgeStateHashDST = "dogebridge-v1-state-hash/"

// withdrawalTreeDepth/manualClaimTreeDepth/manualClaimGlobalTreeDepth bound
// the respective merkle trees' capacity; 32 levels (24 for a single user's
// subtree) is far beyond any realistic withdrawal or per-user claim count. The auto-claim deposit and
// TXO trees have no local counterpart here: their roots are committed
// fields of StateCommitment, proven by block_update/process_reorg_blocks
// proofs rather than grown by local Append calls.
const (
	withdrawalTreeDepth        = 32
	manualClaimTreeDepth       = 24
	manualClaimGlobalTreeDepth = 32
)

// Bridge is the bridge core's in-process orchestrator. One Bridge instance
// corresponds to one deployed bridge (one bridge_id_hex).
type Bridge struct {
	mu sync.Mutex

	db        *store.DB
	verifiers Verifiers
	signer    principal.SignerVerifier
	emitter   Emitter

	operator     principal.Principal
	wrappedMint  [32]byte
	bridgeConfig wire.BridgeConfig
	custodianHash [32]byte

	// bufferLocker is the principal the bridge presents to buffer.PendingMintBuffer
	// and buffer.TxoBuffer's locker/writer-gated methods. Collapsing the
	// buffer-locker role onto the operator principal is this implementation's
	// simplification of "the bridge PDA is the sole locker" (SPEC_FULL §5):
	// there is no separate on-host bridge-program identity to delegate to.
	bufferLocker principal.Principal

	header wire.BridgeHeader
	returnUTXO wire.ReturnTxOutput
	// spentTxoTreeRoot roots the withdrawal-side "which return-UTXO outputs
	// have been consumed" set; updated only by ProcessWithdrawal under proof.
	spentTxoTreeRoot [32]byte

	withdrawalTree *merkle.Tree

	// manualClaimTrees holds one subtree per depositor that has ever used
	// process_manual_deposit, created lazily on first use.
	manualClaimTrees map[principal.Principal]*merkle.Tree
	// manualClaimGlobalTree accumulates one leaf per accepted manual claim,
	// H(user || user's post-claim subtree root); its root is
	// manual_claim_txo_tree_root.
	manualClaimGlobalTree *merkle.Tree

	nextWithdrawalIndex          uint64
	nextProcessedWithdrawalsIndex uint64
	manualClaimTxoRoot           [32]byte

	snapshotRingSize uint32
	snapshotNextSlot uint32
	// snapshotDigests holds one SHA-256 of the stored WithdrawalChainSnapshot
	// per ring slot, so bridge_state_hash binds the ring's actual contents
	// and not just its write pointer; a stale or substituted snapshot at a
	// given slot no longer passes silently through ProcessWithdrawal.
	snapshotDigests [][32]byte

	totalFinalizedFees uint64
	totalFeesWithdrawn uint64

	custodianTransition custodian.Transition

	lastProcessedWithdrawalSighash [32]byte

	initialized bool
}

// New constructs an uninitialized Bridge. Call Initialize before any other
// operation.
func New(db *store.DB, verifiers Verifiers, signer principal.SignerVerifier, emitter Emitter) *Bridge {
	return &Bridge{db: db, verifiers: verifiers, signer: signer, emitter: emitter}
}

// Initialize runs exactly once: sets the operator, wrapped-mint id, fee
// config, initial return-UTXO and custodian hash, and seeds tip=finalized
// at height 0.
func (b *Bridge) Initialize(operator principal.Principal, wrappedMint [32]byte, cfg wire.BridgeConfig, initialReturn wire.ReturnTxOutput, custodianHash [32]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return bridgeerr.Dup(bridgeerr.CodeAlreadyProcessed, "bridgehost: already initialized")
	}

	withdrawalTree, err := merkle.New("dogebridge-v1-withdrawal-tree/", withdrawalTreeDepth)
	if err != nil {
		return err
	}
	manualClaimGlobalTree, err := merkle.New("dogebridge-v1-manual-claim-global-tree/", manualClaimGlobalTreeDepth)
	if err != nil {
		return err
	}

	b.operator = operator
	b.bufferLocker = operator
	b.wrappedMint = wrappedMint
	b.bridgeConfig = cfg
	b.custodianHash = custodianHash
	b.returnUTXO = initialReturn
	b.withdrawalTree = withdrawalTree
	b.manualClaimTrees = make(map[principal.Principal]*merkle.Tree)
	b.manualClaimGlobalTree = manualClaimGlobalTree
	b.manualClaimTxoRoot = manualClaimGlobalTree.Root()
	b.snapshotRingSize = 32
	b.snapshotDigests = make([][32]byte, b.snapshotRingSize)

	commitment := wire.StateCommitment{}
	b.header = wire.BridgeHeader{Tip: commitment, Finalized: commitment}
	b.header.BridgeStateHash = b.computeBridgeStateHash()
	b.initialized = true
	return nil
}

// Header returns a copy of the current BridgeHeader.
func (b *Bridge) Header() wire.BridgeHeader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.header
}

// ReturnUTXO returns a copy of the current custodial UTXO.
func (b *Bridge) ReturnUTXO() wire.ReturnTxOutput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.returnUTXO
}

// requireInitialized guards every operation but Initialize itself: without
// it, an uninitialized Bridge's nil trees would panic on first use instead
// of failing cleanly.
func (b *Bridge) requireInitialized() error {
	if !b.initialized {
		return bridgeerr.Precond(bridgeerr.CodeNotInitialized, "bridgehost: bridge not initialized")
	}
	return nil
}

func (b *Bridge) requireOperator(caller principal.Principal) error {
	if !caller.Equal(b.operator) {
		return bridgeerr.Unauthorized("bridgehost: caller is not the operator")
	}
	return nil
}

// pausedAt reports whether block_update and process_reorg_blocks must
// currently reject: either the operator-set pause window is active, or a
// custodian transition has reached PAUSED.
func (b *Bridge) pausedAt(nowUnixSecs uint32) bool {
	return nowUnixSecs < b.header.PausedUntilSecs || b.custodianTransition.DepositsBlocked()
}

const manualClaimTreeTag = "dogebridge-v1-manual-claim-tree/"

// manualClaimSubtree returns user's manual-claim subtree, creating it (empty,
// at manualClaimTreeDepth) on first use.
func (b *Bridge) manualClaimSubtree(user principal.Principal) *merkle.Tree {
	if t, ok := b.manualClaimTrees[user]; ok {
		return t
	}
	t, err := merkle.New(manualClaimTreeTag, manualClaimTreeDepth)
	if err != nil {
		// manualClaimTreeDepth is a package constant within merkle.MaxDepth;
		// New only fails on an out-of-range depth.
		panic(err)
	}
	b.manualClaimTrees[user] = t
	return t
}

// computeBridgeStateHash hashes every ancillary mutable field not carried
// in StateCommitment, under a fixed domain tag — the same DST-prefixed
// canonical-serialize-then-hash idiom the reference chainstate hash uses.
func (b *Bridge) computeBridgeStateHash() [32]byte {
	h := sha256.New()
	h.Write([]byte(bridgeStateHashDST))
	h.Write(b.bridgeConfig.Encode())
	h.Write(b.operator[:])
	h.Write(b.wrappedMint[:])
	h.Write(b.returnUTXO.Encode())

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], b.nextWithdrawalIndex)
	h.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], b.nextProcessedWithdrawalsIndex)
	h.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], b.totalFinalizedFees)
	h.Write(u64[:])

	h.Write(b.manualClaimTxoRoot[:])
	h.Write(b.custodianHash[:])
	h.Write(b.spentTxoTreeRoot[:])
	binary.LittleEndian.PutUint64(u64[:], b.totalFeesWithdrawn)
	h.Write(u64[:])

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], b.snapshotNextSlot)
	h.Write(u32[:])
	for _, d := range b.snapshotDigests {
		h.Write(d[:])
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
