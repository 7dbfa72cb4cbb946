package game

import "fmt"

type Phase int

const (
	PhaseNoGame Phase = iota
	PhaseWaiting
	PhaseDealing
	PhasePlayerTurn
	PhaseDealerTurn
	PhasePayout
)

// Phases lists every phase in the order a round moves through them.
var Phases = []Phase{PhaseNoGame, PhaseWaiting, PhaseDealing, PhasePlayerTurn, PhaseDealerTurn, PhasePayout}

func (p Phase) String() string {
	switch p {
	case PhaseNoGame:
		return "no game"
	case PhaseWaiting:
		return "waiting"
	case PhaseDealing:
		return "dealing"
	case PhasePlayerTurn:
		return "player turn"
	case PhaseDealerTurn:
		return "dealer turn"
	case PhasePayout:
		return "payout"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
