package zkverify

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"dogebridge.dev/core/wire"
)

// ShapeFactory builds a witness-only circuit (see shapes.go, e.g.
// NewBlockUpdateShape) from an operation's already field-reduced public
// inputs, in schedule order.
type ShapeFactory func(fields []*big.Int) frontend.Circuit

// GnarkVerifier verifies real Groth16 proofs against a loaded verifying key,
// building its witness from one of the shapes in shapes.go. It never
// compiles or proves a circuit; Verify only ever calls groth16.Verify, which
// per gnark's own design does not invoke a circuit's Define method.
type GnarkVerifier struct {
	vk       groth16.VerifyingKey
	newShape ShapeFactory
}

// NewGnarkVerifier loads a verifying key from its raw byte serialization
// (as written by groth16.VerifyingKey.WriteTo) and binds it to newShape,
// the operation-specific public-input layout this verifier instance checks
// proofs against.
func NewGnarkVerifier(vkBytes []byte, newShape ShapeFactory) (*GnarkVerifier, error) {
	vk := groth16.NewVerifyingKey(Curve())
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, fmt.Errorf("zkverify: read verifying key: %w", err)
	}
	return &GnarkVerifier{vk: vk, newShape: newShape}, nil
}

func (g *GnarkVerifier) Verify(publicInputs [][32]byte, proof wire.CompactProof) (bool, error) {
	fields := HashesToFields(publicInputs)
	shape := g.newShape(fields)

	witness, err := frontend.NewWitness(shape, Curve().ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("zkverify: build witness: %w", err)
	}

	pf := groth16.NewProof(Curve())
	if _, err := pf.ReadFrom(bytes.NewReader(proof[:])); err != nil {
		return false, fmt.Errorf("zkverify: read proof: %w", err)
	}

	if err := groth16.Verify(pf, g.vk, witness); err != nil {
		return false, nil
	}
	return true, nil
}
