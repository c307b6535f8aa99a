package avalon

import "errors"

// Phase is the coarse lifecycle state of the table.
type Phase string

const (
	PhaseEmpty    Phase = "empty"
	PhaseJoining  Phase = "joining"
	PhaseActive   Phase = "active"
	PhaseAssassin Phase = "assassin"
	PhaseEnded    Phase = "ended"
)

// ErrTransitionNotAllowed is returned when a phase change is not allowed.
var ErrTransitionNotAllowed = errors.New("phase transition not allowed")

// legalPhaseChanges guards every phase write. "ended" is reachable from
// anywhere so a table can always be shut down; sub-phases like the Lady of
// the Lake interstitial and the Excalibur detour live in their own flags
// inside the active phase, not here.
var legalPhaseChanges = map[Phase][]Phase{
	PhaseEmpty:    {PhaseJoining, PhaseEnded},
	PhaseJoining:  {PhaseActive, PhaseEnded},
	PhaseActive:   {PhaseAssassin, PhaseEnded},
	PhaseAssassin: {PhaseEnded},
	PhaseEnded:    {},
}

func transitionAllowed(from, to Phase) bool {
	for _, next := range legalPhaseChanges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// setPhase applies a guarded phase change.
func (g *Game) setPhase(to Phase) error {
	if !transitionAllowed(g.Phase, to) {
		return ErrTransitionNotAllowed
	}
	g.Phase = to
	return nil
}
