package bridgehost

import "dogebridge.dev/core/zkverify"

// Verifiers binds one zkverify.Verifier per operation's public-input
// schedule. A real deployment supplies five independent GnarkVerifier
// instances, each loaded from that operation's own verifying key and bound
// to its own shape constructor in zkverify/shapes.go; a MockVerifier-based
// test harness can reuse a single shared instance across every field since
// MockVerifier is shape-agnostic (SPEC_FULL §4.9).
type Verifiers struct {
	BlockUpdate         zkverify.Verifier
	Reorg               zkverify.Verifier
	ManualDeposit       zkverify.Verifier
	Withdrawal          zkverify.Verifier
	CustodianTransition zkverify.Verifier
}
