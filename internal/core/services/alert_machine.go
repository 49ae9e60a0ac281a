package services

import (
	"time"

	"srtalert/internal/core/domain"
)

// GracePhase tracks the startup grace period that follows stream detection
type GracePhase int

const (
	GraceIdle   GracePhase = iota // No stream seen yet
	GraceActive                   // Stream detected, threshold checks suppressed
	GraceSteady                   // Threshold checks enabled
)

func (p GracePhase) String() string {
	switch p {
	case GraceIdle:
		return "idle"
	case GraceActive:
		return "grace"
	case GraceSteady:
		return "steady"
	default:
		return "unknown"
	}
}

// WarningPhase tracks whether the warning overlay is (believed to be) shown
type WarningPhase int

const (
	WarningClear WarningPhase = iota
	WarningActive
)

func (p WarningPhase) String() string {
	if p == WarningActive {
		return "active"
	}
	return "clear"
}

// AlertState is the grace and warning state owned by the monitor loop
type AlertState struct {
	Grace          GracePhase
	GraceStartedAt time.Time
	// GraceConsumed stays true once grace has been entered, unless the
	// policy allows a new grace period after the stream goes away.
	GraceConsumed bool

	Warning      WarningPhase
	LastRaisedAt time.Time
	WarningSeq   uint64
}

// EffectKind enumerates the side effects a transition asks for
type EffectKind int

const (
	EffectGraceStarted EffectKind = iota
	EffectGraceEnded
	EffectStreamLost
	EffectWarningRaised
	EffectWarningSuppressed
	EffectWarningCleared
)

func (k EffectKind) String() string {
	switch k {
	case EffectGraceStarted:
		return "grace_started"
	case EffectGraceEnded:
		return "grace_ended"
	case EffectStreamLost:
		return "stream_lost"
	case EffectWarningRaised:
		return "warning_raised"
	case EffectWarningSuppressed:
		return "warning_suppressed"
	case EffectWarningCleared:
		return "warning_cleared"
	default:
		return "unknown"
	}
}

// Effect is an action the monitor performs after a transition
type Effect struct {
	Kind    EffectKind
	Reasons []string
	// Seq identifies the warning a raise or clear belongs to
	Seq uint64
	// HideAfter is how long a raised warning stays visible
	HideAfter time.Duration
}

// AlertPolicy holds the decision parameters of the monitor
type AlertPolicy struct {
	Thresholds             QualityThresholds
	Cooldown               time.Duration
	DisplayTime            time.Duration
	GracePeriod            time.Duration
	RegraceOnStreamRestart bool
}

// Evaluate applies one sample to the state and returns the next state
// plus the effects to perform. It does no I/O.
func (p AlertPolicy) Evaluate(st AlertState, sample domain.Sample, now time.Time) (AlertState, []Effect) {
	if st.Grace != GraceActive && !st.GraceConsumed && sample.HasStream() {
		st.Grace = GraceActive
		st.GraceStartedAt = now
		st.GraceConsumed = true
		return st, []Effect{{Kind: EffectGraceStarted}}
	}

	if st.Grace == GraceActive {
		// The tick that ends grace still skips threshold evaluation.
		if now.Sub(st.GraceStartedAt) >= p.GracePeriod {
			st.Grace = GraceSteady
			st.GraceStartedAt = time.Time{}
			return st, []Effect{{Kind: EffectGraceEnded}}
		}
		return st, nil
	}

	if !sample.HasStream() {
		if p.RegraceOnStreamRestart && st.Grace == GraceSteady {
			st.Grace = GraceIdle
			st.GraceConsumed = false
			return st, []Effect{{Kind: EffectStreamLost}}
		}
		return st, nil
	}

	if st.Grace != GraceSteady {
		return st, nil
	}

	reasons := p.Thresholds.Violations(sample)
	if len(reasons) == 0 {
		return st, nil
	}
	return p.raise(st, reasons, now)
}

// raise is the low-quality handler: one warning per cooldown window, never
// while a warning is still shown. Rejected violations are dropped.
func (p AlertPolicy) raise(st AlertState, reasons []string, now time.Time) (AlertState, []Effect) {
	if st.Warning == WarningActive || p.inCooldown(st, now) {
		return st, []Effect{{Kind: EffectWarningSuppressed, Reasons: reasons, Seq: st.WarningSeq}}
	}

	st.Warning = WarningActive
	st.LastRaisedAt = now
	st.WarningSeq++
	return st, []Effect{{
		Kind:      EffectWarningRaised,
		Reasons:   reasons,
		Seq:       st.WarningSeq,
		HideAfter: p.DisplayTime,
	}}
}

func (p AlertPolicy) inCooldown(st AlertState, now time.Time) bool {
	if st.LastRaisedAt.IsZero() {
		return false
	}
	return now.Sub(st.LastRaisedAt) < p.Cooldown
}

// Clear ends the warning identified by seq. A stale seq (the warning was
// already cleared or replaced) yields no effects and leaves the state as is.
func (p AlertPolicy) Clear(st AlertState, seq uint64) (AlertState, []Effect) {
	if st.Warning != WarningActive || st.WarningSeq != seq {
		return st, nil
	}
	st.Warning = WarningClear
	return st, []Effect{{Kind: EffectWarningCleared, Seq: seq}}
}

// NextAlertIn returns how long until a new warning may be raised
func (p AlertPolicy) NextAlertIn(st AlertState, now time.Time) time.Duration {
	if st.LastRaisedAt.IsZero() {
		return 0
	}
	if left := p.Cooldown - now.Sub(st.LastRaisedAt); left > 0 {
		return left
	}
	return 0
}
