package game

import "fmt"

// AnyHand picks the player's first hand that is still open.
const AnyHand = -1

type Action string

const (
	ActionHit       Action = "hit"
	ActionStand     Action = "stand"
	ActionDouble    Action = "double"
	ActionSplit     Action = "split"
	ActionSurrender Action = "surrender"
	ActionInsure    Action = "insure"
)

// openHand resolves a hand that can still take an action during the
// player turn.
func (s *Session) openHand(who Identity, index int) (*Player, *Hand, int, error) {
	if s.phase != PhasePlayerTurn {
		return nil, nil, 0, fmt.Errorf("%w: it is not the players' turn (%s)", ErrWrongPhase, s.phase)
	}
	p, ok := s.players[who.ID]
	if !ok {
		return nil, nil, 0, fmt.Errorf("%w: %s is not in this round", ErrNotSeated, who.Name)
	}
	if index == AnyHand {
		index = p.firstOpen()
	}
	if index < 0 || index >= len(p.Hands) {
		return nil, nil, 0, fmt.Errorf("%w: %s has %d hand(s)", ErrBadHand, who.Name, len(p.Hands))
	}

	h := p.Hands[index]
	if h.Done() {
		return nil, nil, 0, fmt.Errorf("%w: cannot act on %s", ErrIllegalAction, h.State)
	}
	return p, h, index, nil
}

func (s *Session) handAction(op string, who Identity, index int, act func(p *Player, h *Hand, i int) error) error {
	return s.do(op, who.ID, func() error {
		p, h, i, err := s.openHand(who, index)
		if err != nil {
			return err
		}
		if err := act(p, h, i); err != nil {
			return err
		}
		s.say("%s", playerSummary(p))
		return s.afterHandAction()
	})
}

func (s *Session) Hit(who Identity, index int) error {
	return s.handAction("hit", who, index, func(p *Player, h *Hand, _ int) error {
		if h.State == HandAceSplit {
			return fmt.Errorf("%w: split aces take one card only", ErrIllegalAction)
		}
		h.Deal(s.deck.Draw())
		return nil
	})
}

func (s *Session) Stand(who Identity, index int) error {
	return s.handAction("stand", who, index, func(p *Player, h *Hand, _ int) error {
		h.State = HandStand
		return nil
	})
}

func (s *Session) Surrender(who Identity, index int) error {
	return s.handAction("surrender", who, index, func(p *Player, h *Hand, _ int) error {
		h.State = HandSurrender
		return nil
	})
}

// DoubleDown draws exactly one card and ends the hand. The doubled payout is
// settled at the end of the round.
func (s *Session) DoubleDown(who Identity, index int) error {
	return s.handAction("double", who, index, func(p *Player, h *Hand, _ int) error {
		if err := canDouble(h); err != nil {
			return err
		}
		h.Deal(s.deck.Draw())
		if h.State != HandBust {
			h.State = HandDoubleDown
		}
		return nil
	})
}

func canDouble(h *Hand) error {
	if len(h.Cards) != 2 {
		return fmt.Errorf("%w: you can only double down on two cards", ErrIllegalAction)
	}
	if h.State == HandAceSplit {
		return fmt.Errorf("%w: split aces take one card only", ErrIllegalAction)
	}
	return nil
}

func canSplit(p *Player, h *Hand) error {
	if !h.Pair() {
		return fmt.Errorf("%w: you can only split two cards of the same rank", ErrIllegalAction)
	}
	if p.splitAces {
		return fmt.Errorf("%w: aces have already been split this round", ErrIllegalAction)
	}
	return nil
}

// Split moves the second card into a new hand and deals one card to each.
// The new hand carries its own wager, debited here.
func (s *Session) Split(who Identity, index int) error {
	return s.handAction("split", who, index, func(p *Player, h *Hand, i int) error {
		if err := canSplit(p, h); err != nil {
			return err
		}
		if err := s.charge(p.ID, p.Wager); err != nil {
			return err
		}
		p.extraStake += p.Wager

		tag := HandSplit
		if h.Cards[0].Rank == Ace {
			tag = HandAceSplit
			p.splitAces = true
		}

		second := h.Cards[1]
		h.Cards = h.Cards[:1]
		h.State = tag

		nh := s.newHand()
		nh.Cards = append(nh.Cards, second)
		nh.State = tag

		p.Hands = append(p.Hands[:i+1], append([]*Hand{nh}, p.Hands[i+1:]...)...)

		h.Deal(s.deck.Draw())
		nh.Deal(s.deck.Draw())
		return nil
	})
}

// Insure places the insurance side bet while the dealer shows an ace.
func (s *Session) Insure(who Identity) error {
	return s.do("insure", who.ID, func() error {
		if s.phase != PhasePlayerTurn {
			return fmt.Errorf("%w: insurance is sold during the players' turn (%s)", ErrWrongPhase, s.phase)
		}
		p, ok := s.players[who.ID]
		if !ok {
			return fmt.Errorf("%w: %s is not in this round", ErrNotSeated, who.Name)
		}
		if err := s.canInsureFor(p); err != nil {
			return err
		}

		stake := InsuranceStake(p.Wager)
		if err := s.charge(p.ID, stake); err != nil {
			return err
		}
		p.HasInsurance = true
		p.Insurance = stake
		s.say("%s bought insurance for $%d.", p.Name, stake)
		return nil
	})
}

func (s *Session) canInsureFor(p *Player) error {
	if !s.canInsure {
		return fmt.Errorf("%w: the dealer is not showing an ace", ErrIllegalAction)
	}
	if p.HasInsurance {
		return fmt.Errorf("%w: %s is already insured", ErrIllegalAction, p.Name)
	}
	if InsuranceStake(p.Wager) == 0 {
		return fmt.Errorf("%w: a $%d bet is too small to insure", ErrIllegalAction, p.Wager)
	}
	return nil
}

// Actions lists what the player may do with a hand right now. Funds are not
// checked.
func (s *Session) Actions(who Identity, index int) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, h, _, err := s.openHand(who, index)
	if err != nil {
		return nil
	}

	var actions []Action
	if h.State != HandAceSplit {
		actions = append(actions, ActionHit)
	}
	actions = append(actions, ActionStand)
	if canDouble(h) == nil {
		actions = append(actions, ActionDouble)
	}
	if canSplit(p, h) == nil {
		actions = append(actions, ActionSplit)
	}
	actions = append(actions, ActionSurrender)
	if s.canInsureFor(p) == nil {
		actions = append(actions, ActionInsure)
	}
	return actions
}
