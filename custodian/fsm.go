// Package custodian implements the custodian-set transition finite state
// machine: NONE -> PENDING -> PAUSED -> COMPLETED, with a cancel path back
// to NONE from PENDING or PAUSED.
package custodian

import (
	"time"

	"dogebridge.dev/core/bridgeerr"
)

// State is a custodian transition's lifecycle stage.
type State byte

const (
	StateNone State = iota
	StatePending
	StatePaused
	StateCompleted
)

// GracePeriod is the minimum duration between notify and a successful
// pause, per SPEC_FULL §4.8 / §8.
const GracePeriod = 2 * time.Hour

// Error code subspace 960-968, reserved for custodian-transition failures.
const (
	ErrCodeAlreadyTransitioning bridgeerr.Code = "960"
	ErrCodeNoTransitionInFlight bridgeerr.Code = "961"
	ErrCodeNotPending           bridgeerr.Code = "962"
	ErrCodeNotPaused            bridgeerr.Code = "963"
	ErrCodeGraceNotElapsed      bridgeerr.Code = "964"
	ErrCodeIncompleteSpend      bridgeerr.Code = "965"
	ErrCodeInvalidProof         bridgeerr.Code = "966"
	ErrCodeCancelFromCompleted  bridgeerr.Code = "967"
	ErrCodeZeroConsolidation    bridgeerr.Code = "968"
)

// Transition tracks one in-progress (or completed) custodian handover. The
// consolidation target is deliberately not stored here: it must be
// recomputed from finalized state at Process time so deposits admitted
// while PENDING (which stay unblocked, per DepositsBlocked) still count, and
// so the target is reorg-safe rather than frozen against a tip that can
// still roll back.
type Transition struct {
	State              State
	IncomingHash        [32]byte
	StartedAtUnixSecs   int64
	TotalSpentDeposits  uint64
}

// Notify begins a transition: NONE -> PENDING. Deposits remain active while
// PENDING.
func (t *Transition) Notify(newHash [32]byte, nowUnixSecs int64) error {
	if t.State != StateNone {
		return bridgeerr.Precond(ErrCodeAlreadyTransitioning, "custodian: transition already in flight")
	}
	t.State = StatePending
	t.IncomingHash = newHash
	t.StartedAtUnixSecs = nowUnixSecs
	t.TotalSpentDeposits = 0
	return nil
}

// Pause moves PENDING -> PAUSED. Fails before the grace period elapses.
// Once paused, deposit entrypoints reject with DepositsBlockedDuringTransition.
func (t *Transition) Pause(nowUnixSecs int64) error {
	if t.State != StatePending {
		return bridgeerr.Precond(ErrCodeNotPending, "custodian: not in PENDING")
	}
	elapsed := time.Duration(nowUnixSecs-t.StartedAtUnixSecs) * time.Second
	if elapsed < GracePeriod {
		return bridgeerr.Time(ErrCodeGraceNotElapsed, "custodian: grace period not elapsed")
	}
	t.State = StatePaused
	return nil
}

// RecordSpentDeposit accounts one more consolidated deposit UTXO toward the
// consolidation target, callable only while PAUSED.
func (t *Transition) RecordSpentDeposit() error {
	if t.State != StatePaused {
		return bridgeerr.Precond(ErrCodeNotPaused, "custodian: not in PAUSED")
	}
	t.TotalSpentDeposits++
	return nil
}

// ReadyToComplete reports whether enough deposit UTXOs have been
// consolidated to permit Process, against a consolidationTarget the caller
// computes fresh from current finalized state.
func (t *Transition) ReadyToComplete(consolidationTarget uint64) bool {
	return t.State == StatePaused && t.TotalSpentDeposits >= consolidationTarget
}

// Process moves PAUSED -> COMPLETED. Fails if the consolidation target has
// not been reached; the caller (bridgehost) is responsible for computing
// consolidationTarget from current finalized state and for verifying the
// transition proof before calling this.
func (t *Transition) Process(consolidationTarget uint64) error {
	if t.State != StatePaused {
		return bridgeerr.Precond(ErrCodeNotPaused, "custodian: not in PAUSED")
	}
	if t.TotalSpentDeposits < consolidationTarget {
		return bridgeerr.Precond(ErrCodeIncompleteSpend, "custodian: consolidation target not reached")
	}
	t.State = StateCompleted
	return nil
}

// Cancel moves PENDING or PAUSED back to NONE. Deposits unblock immediately
// if they were blocked.
func (t *Transition) Cancel() error {
	switch t.State {
	case StatePending, StatePaused:
		*t = Transition{}
		return nil
	case StateCompleted:
		return bridgeerr.Precond(ErrCodeCancelFromCompleted, "custodian: cannot cancel a completed transition")
	default:
		return bridgeerr.Precond(ErrCodeNoTransitionInFlight, "custodian: no transition in flight")
	}
}

// Reset returns a completed transition's state machine to NONE, ready for
// the next Notify. Call after Process succeeds and the bridge has rotated
// its custodian hash / return-UTXO.
func (t *Transition) Reset() {
	*t = Transition{}
}

// DepositsBlocked reports whether deposit entrypoints must reject with
// DepositsBlockedDuringTransition: true only once PAUSED, never merely
// PENDING (SPEC_FULL §4.8's "hard rule").
func (t *Transition) DepositsBlocked() bool {
	return t.State == StatePaused
}
