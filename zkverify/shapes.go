package zkverify

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
)

// Curve is the curve every shape in this package is compiled/verified over.
func Curve() ecc.ID { return ecc.BN254 }

// HashToField reduces a 32-byte digest into the scalar field a Groth16
// circuit over Curve() operates in. A SHA-256 digest is 256 bits, two bits
// wider than BN254's ~254-bit scalar field, so every on-host hash must be
// reduced before it can be treated as a circuit public input.
func HashToField(h [32]byte) *big.Int {
	v := new(big.Int).SetBytes(h[:])
	return v.Mod(v, Curve().ScalarField())
}

// HashesToFields reduces an ordered list of digests in one pass.
func HashesToFields(hashes [][32]byte) []*big.Int {
	out := make([]*big.Int, len(hashes))
	for i, h := range hashes {
		out[i] = HashToField(h)
	}
	return out
}

// BlockUpdateShape is block_update's public-input schedule (SPEC_FULL §4.5
// step 3): the old finalized commitment, the new tip and finalized
// commitments, the ancillary bridge_state_hash, the two buffer hashes, and
// the return-UTXO commitment.
type BlockUpdateShape struct {
	OldFinalized  frontend.Variable `gnark:",public"`
	NewTip        frontend.Variable `gnark:",public"`
	NewFinalized  frontend.Variable `gnark:",public"`
	BridgeState   frontend.Variable `gnark:",public"`
	MintBufHash   frontend.Variable `gnark:",public"`
	TxoBufHash    frontend.Variable `gnark:",public"`
	ReturnUtxo    frontend.Variable `gnark:",public"`
}

func (c *BlockUpdateShape) Define(_ frontend.API) error { return nil }

// NewBlockUpdateShape builds a witness-only BlockUpdateShape from already
// field-reduced public inputs, in schedule order.
func NewBlockUpdateShape(f []*big.Int) *BlockUpdateShape {
	return &BlockUpdateShape{
		OldFinalized: f[0], NewTip: f[1], NewFinalized: f[2],
		BridgeState: f[3], MintBufHash: f[4], TxoBufHash: f[5], ReturnUtxo: f[6],
	}
}

// ReorgShape extends BlockUpdateShape with a commitment to the ordered
// extra_blocks list (SPEC_FULL §4.5 process_reorg_blocks).
type ReorgShape struct {
	OldFinalized      frontend.Variable `gnark:",public"`
	NewTip            frontend.Variable `gnark:",public"`
	NewFinalized      frontend.Variable `gnark:",public"`
	BridgeState       frontend.Variable `gnark:",public"`
	MintBufHash       frontend.Variable `gnark:",public"`
	TxoBufHash        frontend.Variable `gnark:",public"`
	ReturnUtxo        frontend.Variable `gnark:",public"`
	ExtraBlocksCommit frontend.Variable `gnark:",public"`
}

func (c *ReorgShape) Define(_ frontend.API) error { return nil }

func NewReorgShape(f []*big.Int) *ReorgShape {
	return &ReorgShape{
		OldFinalized: f[0], NewTip: f[1], NewFinalized: f[2], BridgeState: f[3],
		MintBufHash: f[4], TxoBufHash: f[5], ReturnUtxo: f[6], ExtraBlocksCommit: f[7],
	}
}

// ManualClaimShape is process_manual_deposit's public-input schedule
// (SPEC_FULL §4.6): the claimed tx hash, the recipient/amount the deposit is
// bound to, the combined TXO index non-membership is claimed at, the
// recency anchors the claim is checked against, and the per-user root
// transition the claim causes.
type ManualClaimShape struct {
	TxHash           frontend.Variable `gnark:",public"`
	RecipientPubkey  frontend.Variable `gnark:",public"`
	CombinedTxoIndex frontend.Variable `gnark:",public"`
	AmountSats       frontend.Variable `gnark:",public"`
	RecentBlockRoot  frontend.Variable `gnark:",public"`
	RecentTxoRoot    frontend.Variable `gnark:",public"`
	OldUserRoot      frontend.Variable `gnark:",public"`
	NewUserRoot      frontend.Variable `gnark:",public"`
}

func (c *ManualClaimShape) Define(_ frontend.API) error { return nil }

func NewManualClaimShape(f []*big.Int) *ManualClaimShape {
	return &ManualClaimShape{
		TxHash: f[0], RecipientPubkey: f[1], CombinedTxoIndex: f[2], AmountSats: f[3],
		RecentBlockRoot: f[4], RecentTxoRoot: f[5], OldUserRoot: f[6], NewUserRoot: f[7],
	}
}

// WithdrawalShape is process_withdrawal's public-input schedule (SPEC_FULL
// §4.7 step 2).
type WithdrawalShape struct {
	Sighash           frontend.Variable `gnark:",public"`
	OldReturnUtxo     frontend.Variable `gnark:",public"`
	NewReturnUtxo     frontend.Variable `gnark:",public"`
	OldSpentTxoRoot   frontend.Variable `gnark:",public"`
	NewSpentTxoRoot   frontend.Variable `gnark:",public"`
	SnapshotRoot      frontend.Variable `gnark:",public"`
	OldNextProcessed  frontend.Variable `gnark:",public"`
	NewNextProcessed  frontend.Variable `gnark:",public"`
	CustodianConfig   frontend.Variable `gnark:",public"`
}

func (c *WithdrawalShape) Define(_ frontend.API) error { return nil }

func NewWithdrawalShape(f []*big.Int) *WithdrawalShape {
	return &WithdrawalShape{
		Sighash: f[0], OldReturnUtxo: f[1], NewReturnUtxo: f[2],
		OldSpentTxoRoot: f[3], NewSpentTxoRoot: f[4], SnapshotRoot: f[5],
		OldNextProcessed: f[6], NewNextProcessed: f[7], CustodianConfig: f[8],
	}
}

// CustodianTransitionShape is process's public-input schedule (SPEC_FULL
// §4.8): a single combined hash of the old/new return-UTXO and custodian
// hash.
type CustodianTransitionShape struct {
	CombinedHash frontend.Variable `gnark:",public"`
}

func (c *CustodianTransitionShape) Define(_ frontend.API) error { return nil }

func NewCustodianTransitionShape(f []*big.Int) *CustodianTransitionShape {
	return &CustodianTransitionShape{CombinedHash: f[0]}
}
