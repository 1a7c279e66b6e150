// Package principal provides the bridge core's host-agnostic authority
// model: the capability-indexed-authority reinterpretation of a host
// chain's PDA/signing-seed scheme (see SPEC_FULL.md's design notes).
//
// The core never verifies a foreign chain's native signature algorithm —
// that is the host's job and is explicitly out of scope. SignerVerifier is
// the seam: production call sites wire in whatever the host actually
// proves; tests and simulation wire in a trivial equality check.
package principal

import "bytes"

// Principal is a host-agnostic 32-byte authority identifier.
type Principal [32]byte

// IsZero reports whether p is the zero principal (unset authority).
func (p Principal) IsZero() bool {
	return p == Principal{}
}

// Equal reports byte-for-byte equality.
func (p Principal) Equal(other Principal) bool {
	return bytes.Equal(p[:], other[:])
}

// SignerVerifier proves that msg was authorized by p. Production
// deployments supply one backed by the host chain's real signature
// verification; it is never implemented by this package.
type SignerVerifier func(p Principal, msg []byte, sig []byte) bool

// TrivialVerifier is a SignerVerifier for tests and simulation: it accepts
// iff sig equals p's bytes, i.e. "proof of authority" is just presenting the
// principal's own identifier. Never use outside tests.
func TrivialVerifier(p Principal, _ []byte, sig []byte) bool {
	return bytes.Equal(p[:], sig)
}
