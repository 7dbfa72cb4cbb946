package game

import "fmt"

func (s *Session) checkWager(wager int) error {
	if wager <= 0 {
		return fmt.Errorf("%w: you must bet more than $0", ErrBadInput)
	}
	if wager < s.rules.MinBet || (s.rules.MaxBet > 0 && wager > s.rules.MaxBet) {
		if s.rules.MaxBet > 0 {
			return fmt.Errorf("%w: bets are between $%d and $%d", ErrBadInput, s.rules.MinBet, s.rules.MaxBet)
		}
		return fmt.Errorf("%w: the minimum bet is $%d", ErrBadInput, s.rules.MinBet)
	}
	return nil
}

// Join seats a player, or queues them for the next round if a hand is in
// progress. The wager is debited either way. A join with no table open
// starts one.
func (s *Session) Join(who Identity, wager int) error {
	return s.do("join", who.ID, func() error {
		if _, ok := s.players[who.ID]; ok || s.queued(who.ID) >= 0 {
			return fmt.Errorf("%w: %s is already at the table", ErrAlreadySeated, who.Name)
		}
		if wager == 0 {
			wager = s.rules.DefaultBet
		}
		if err := s.checkWager(wager); err != nil {
			return err
		}
		if err := s.charge(who.ID, wager); err != nil {
			return err
		}

		p := NewPlayer(who, wager)
		p.staked = true

		switch s.phase {
		case PhaseNoGame, PhaseWaiting:
			s.seat(p)
			s.say("%s has joined blackjack with $%d!", who.Name, wager)
		default:
			s.queue = append(s.queue, p)
			s.say("%s is in the waiting queue.", who.Name)
			return nil
		}

		if s.phase == PhaseNoGame {
			return s.transition(PhaseWaiting)
		}
		return nil
	})
}

// Bet changes a seated player's wager before the deal.
func (s *Session) Bet(who Identity, amount int) error {
	return s.do("bet", who.ID, func() error {
		if s.phase != PhaseWaiting {
			return fmt.Errorf("%w: bets can only change before the deal (%s)", ErrWrongPhase, s.phase)
		}
		p, ok := s.players[who.ID]
		if !ok {
			return fmt.Errorf("%w: join the table first", ErrNotSeated)
		}
		if err := s.checkWager(amount); err != nil {
			return err
		}

		diff := amount - p.Wager
		if p.staked {
			var err error
			if diff > 0 {
				err = s.charge(who.ID, diff)
			} else {
				err = s.adjust(who.ID, -diff)
			}
			if err != nil {
				return err
			}
		}

		p.Wager = amount
		s.say("%s bet $%d.", p.Name, amount)
		return nil
	})
}

// Skip votes to deal now. When every seated player has voted the countdown
// is cancelled and the deal starts.
func (s *Session) Skip(who Identity) error {
	return s.do("skip", who.ID, func() error {
		if s.phase != PhaseWaiting {
			return fmt.Errorf("%w: skip only works while waiting for players (%s)", ErrWrongPhase, s.phase)
		}
		if _, ok := s.players[who.ID]; !ok {
			return fmt.Errorf("%w: join the table first", ErrNotSeated)
		}

		s.skips[who.ID] = struct{}{}
		s.say("%s wants to skip the countdown (%d/%d).", who.Name, len(s.skips), len(s.players))
		return s.checkSkips()
	})
}

func (s *Session) checkSkips() error {
	if s.phase != PhaseWaiting || len(s.players) == 0 {
		return nil
	}
	for id := range s.players {
		if _, ok := s.skips[id]; !ok {
			return nil
		}
	}
	s.stopCountdown()
	return s.transition(PhaseDealing)
}

// Quit removes the player from the queue or the table. The wager comes back
// only if the cards have not been dealt.
func (s *Session) Quit(who Identity) error {
	return s.do("quit", who.ID, func() error {
		if i := s.queued(who.ID); i >= 0 {
			p := s.queue[i]
			if err := s.adjust(who.ID, p.Staked()); err != nil {
				return err
			}
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.say("%s is quitting the game!", p.Name)
			return nil
		}

		p, ok := s.players[who.ID]
		if !ok {
			return fmt.Errorf("%w: %s is not at the table", ErrNotSeated, who.Name)
		}
		if s.phase == PhaseWaiting && p.staked {
			if err := s.adjust(who.ID, p.Wager); err != nil {
				return err
			}
		}

		s.unseat(who.ID)
		s.say("%s is quitting the game!", p.Name)
		return s.afterLeave()
	})
}

func (s *Session) afterLeave() error {
	if len(s.players) == 0 {
		if len(s.queue) == 0 {
			return s.transition(PhaseNoGame)
		}
		if s.phase != PhaseWaiting {
			s.say("Everyone left the round. Starting over.")
			return s.transition(PhaseWaiting)
		}
	}

	switch s.phase {
	case PhaseWaiting:
		return s.checkSkips()
	case PhasePlayerTurn:
		return s.afterHandAction()
	}
	return nil
}

// ShowHand announces the player's current hands.
func (s *Session) ShowHand(who Identity) error {
	return s.do("hand", who.ID, func() error {
		p, ok := s.players[who.ID]
		if !ok {
			if s.queued(who.ID) >= 0 {
				return fmt.Errorf("%w: %s is waiting for the next round", ErrWrongPhase, who.Name)
			}
			return fmt.Errorf("%w: %s is not at the table", ErrNotSeated, who.Name)
		}
		s.say("%s", playerSummary(p))
		return nil
	})
}
