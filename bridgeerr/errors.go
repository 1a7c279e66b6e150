// Package bridgeerr is the bridge core's closed error taxonomy.
//
// Every core operation returns one of these typed errors rather than a bare
// fmt.Errorf. Kind drives the caller's recovery policy: Timing is safe to
// retry unchanged, Duplicate is safe to treat as a no-op, the rest are not.
package bridgeerr

import "fmt"

// Kind is the recovery-policy class of an Error.
type Kind string

const (
	AuthorityViolation Kind = "AUTHORITY_VIOLATION"
	Precondition       Kind = "PRECONDITION"
	Integrity          Kind = "INTEGRITY"
	Capacity           Kind = "CAPACITY"
	Timing             Kind = "TIMING"
	Duplicate          Kind = "DUPLICATE"
)

// Code is a stable, closed error code within a Kind.
type Code string

const (
	CodeUnauthorized              Code = "UNAUTHORIZED"
	CodePaused                    Code = "PAUSED"
	CodeHeightMismatch            Code = "HEIGHT_MISMATCH"
	CodeBufferNotFrozen           Code = "BUFFER_NOT_FROZEN"
	CodeIncompleteConsolidation   Code = "INCOMPLETE_CONSOLIDATION"
	CodeDepositsBlocked           Code = "DEPOSITS_BLOCKED_DURING_TRANSITION"
	CodeBufferHashMismatch        Code = "BUFFER_HASH_MISMATCH"
	CodeStateHashMismatch         Code = "STATE_HASH_MISMATCH"
	CodeInvalidProof              Code = "INVALID_PROOF"
	CodeTreeFull                  Code = "TREE_FULL"
	CodeBufferTooLarge            Code = "BUFFER_TOO_LARGE"
	CodeGracePeriodNotElapsed     Code = "GRACE_PERIOD_NOT_ELAPSED"
	CodeAlreadyProcessed          Code = "ALREADY_PROCESSED"
	CodeDepositAlreadyClaimed     Code = "DEPOSIT_ALREADY_CLAIMED"
	CodeSighashMismatch           Code = "SIGHASH_MISMATCH"
	CodeInsufficientFees          Code = "INSUFFICIENT_FEES"
	CodeNotInitialized            Code = "NOT_INITIALIZED"
)

// Error is the concrete error type returned by every bridge core operation.
type Error struct {
	Kind Kind
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s/%s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Msg)
}

func newErr(kind Kind, code Code, msg string) error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func New(kind Kind, code Code, msg string) error { return newErr(kind, code, msg) }

func Unauthorized(msg string) error {
	return newErr(AuthorityViolation, CodeUnauthorized, msg)
}

func Precond(code Code, msg string) error {
	return newErr(Precondition, code, msg)
}

func Integ(code Code, msg string) error {
	return newErr(Integrity, code, msg)
}

func Cap(code Code, msg string) error {
	return newErr(Capacity, code, msg)
}

func Time(code Code, msg string) error {
	return newErr(Timing, code, msg)
}

func Dup(code Code, msg string) error {
	return newErr(Duplicate, code, msg)
}

// Is reports whether err is a *Error with the given code.
func Is(err error, code Code) bool {
	be, ok := err.(*Error)
	return ok && be.Code == code
}

// KindOf returns the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	be, ok := err.(*Error)
	if !ok {
		return ""
	}
	return be.Kind
}
