package game

import (
	"fmt"
	"strings"
)

type HandView struct {
	Cards []string `json:"cards"`
	Score int      `json:"score"`
	Soft  bool     `json:"soft"`
	State string   `json:"state,omitempty"`
	Done  bool     `json:"done"`
}

type PlayerView struct {
	ID        PlayerID   `json:"id"`
	Name      string     `json:"name"`
	Wager     int        `json:"wager"`
	Insurance int        `json:"insurance,omitempty"`
	Skipped   bool       `json:"skipped,omitempty"`
	Hands     []HandView `json:"hands,omitempty"`
}

// Snapshot is a copy of the table that is safe to hand to other goroutines.
// The dealer's hole card stays hidden until the dealer turn.
type Snapshot struct {
	Round     string       `json:"round,omitempty"`
	Phase     string       `json:"phase"`
	Dealer    HandView     `json:"dealer"`
	Players   []PlayerView `json:"players"`
	Queue     []string     `json:"queue,omitempty"`
	CanInsure bool         `json:"canInsure,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Phase:     s.phase.String(),
		Dealer:    viewHand(s.dealer),
		Players:   make([]PlayerView, 0, len(s.seating)),
		CanInsure: s.canInsure,
	}
	if s.phase != PhaseNoGame {
		snap.Round = s.roundID.String()
	}

	for _, id := range s.seating {
		p := s.players[id]
		_, skipped := s.skips[id]
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Wager:     p.Wager,
			Insurance: p.Insurance,
			Skipped:   skipped,
		}
		for _, h := range p.Hands {
			pv.Hands = append(pv.Hands, viewHand(h))
		}
		snap.Players = append(snap.Players, pv)
	}
	for _, p := range s.queue {
		snap.Queue = append(snap.Queue, p.Name)
	}
	return snap
}

func viewHand(h *Hand) HandView {
	visible := make([]Card, 0, len(h.Cards))
	v := HandView{Cards: make([]string, 0, len(h.Cards))}
	for _, c := range h.Cards {
		v.Cards = append(v.Cards, c.String())
		if !c.FaceDown {
			visible = append(visible, c)
		}
	}
	v.Score, v.Soft = Score(visible)

	if !h.hidden() {
		v.State = h.State.String()
		v.Done = h.Done()
	}
	return v
}

// playerSummary renders "name [Bet: N]:" followed by the player's hands.
func playerSummary(p *Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [Bet: %d]:", p.Name, p.Wager)

	switch len(p.Hands) {
	case 0:
		b.WriteString("\nwaiting for the deal")
	case 1:
		fmt.Fprintf(&b, "\n%s (%d)", p.Hands[0], p.Hands[0].Score())
	default:
		for i, h := range p.Hands {
			fmt.Fprintf(&b, "\n%d. %s (%d)", i+1, h, h.Score())
		}
	}
	if p.HasInsurance {
		fmt.Fprintf(&b, "\nInsured for $%d", p.Insurance)
	}
	return b.String()
}
