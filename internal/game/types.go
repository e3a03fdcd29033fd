package game

import "strings"

// Side is the direction of a wager relative to the shooter.
type Side string

const (
	SideNone    Side = ""
	SideWith    Side = "with"
	SideAgainst Side = "against"
)

// ParseSide accepts the wire spelling of a side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideWith:
		return SideWith, nil
	case SideAgainst:
		return SideAgainst, nil
	}
	return SideNone, ErrInvalidSide
}

func (s Side) String() string { return string(s) }

// Phase is the externally visible table phase.
type Phase string

const (
	PhaseBetting    Phase = "BETTING"
	PhaseRollWindow Phase = "ROLL_WINDOW"
	PhaseRolling    Phase = "ROLLING"
)

func (p Phase) String() string { return string(p) }

// Outcome classifies a resolved roll under craps rules.
type Outcome string

const (
	OutcomeNatural    Outcome = "natural"
	OutcomeCraps      Outcome = "craps"
	OutcomePointSet   Outcome = "point_set"
	OutcomePointMade  Outcome = "point_made"
	OutcomeSevenOut   Outcome = "seven_out"
	OutcomeNoDecision Outcome = "no_decision"
)

// Winner returns the winning side for a deciding outcome.
func (o Outcome) Winner() (Side, bool) {
	switch o {
	case OutcomeNatural, OutcomePointMade:
		return SideWith, true
	case OutcomeCraps, OutcomeSevenOut:
		return SideAgainst, true
	}
	return SideNone, false
}
