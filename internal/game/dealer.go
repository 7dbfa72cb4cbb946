package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const dealerStandsOn = 17

// dealerHits is the house policy: hit below 17 and on a soft 17.
func dealerHits(h *Hand) bool {
	if h.Done() {
		return false
	}
	score := h.Score()
	return score < dealerStandsOn || (score == dealerStandsOn && h.Soft)
}

func (s *Session) enterDealerTurn() {
	s.dealer.reveal()
	s.say("Dealer:\n%s (%d)", s.dealer, s.dealer.Score())
	go s.runDealer(s.epoch)
}

// runDealer plays the dealer hand one card per DealerDelay. It only holds the
// session lock while drawing, and gives up as soon as the session has moved
// on without it.
func (s *Session) runDealer(epoch uint64) {
	timer := time.NewTimer(s.rules.DealerDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if !s.dealerStep(epoch) {
			return
		}
		timer.Reset(s.rules.DealerDelay)
	}
}

// dealerStep draws one card or settles the round. It reports whether the
// dealer has more to do.
func (s *Session) dealerStep(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDealerTurn || s.epoch != epoch {
		s.log.WithField("epoch", epoch).Debug("dealer turn abandoned")
		return false
	}

	if !dealerHits(s.dealer) {
		if err := s.transition(PhasePayout); err != nil {
			s.log.WithError(err).Error("payout failed")
		}
		return false
	}

	card := s.deck.Draw()
	s.dealer.Deal(card)
	s.say("Dealer hits %s:\n%s (%d)", card, s.dealer, s.dealer.Score())
	return true
}

func (s *Session) enterPayout() error {
	switch {
	case s.dealer.State == HandBust:
		s.say("Dealer busts!")
	case s.dealer.Natural():
		s.say("Dealer has blackjack!")
	}

	next := make(map[PlayerID]*Player, len(s.players))
	for _, id := range s.seating {
		p := s.players[id]
		s.payPlayer(p)
		next[id] = p.fresh()
	}
	s.players = next
	s.dealer = s.newHand()
	s.canInsure = false

	if len(s.players) > 0 || len(s.queue) > 0 {
		return s.transition(PhaseWaiting)
	}
	return s.transition(PhaseNoGame)
}

// payPlayer credits the wager back plus the settlement of every hand and the
// insurance bet, in one ledger call.
func (s *Session) payPlayer(p *Player) {
	var (
		credit int
		net    int
		msg    strings.Builder
	)

	fmt.Fprintf(&msg, "%s [Bet: %d]:\n", p.Name, p.Wager)
	for i, h := range p.Hands {
		amount := Settle(h, p.Wager, s.dealer)
		credit += p.Wager + amount
		net += amount
		if len(p.Hands) > 1 {
			fmt.Fprintf(&msg, "%d. ", i+1)
		}
		fmt.Fprintf(&msg, "%s %s\n", h, money(amount))
	}
	if len(p.Hands) == 0 && p.staked {
		credit += p.Wager
	}
	if p.HasInsurance {
		amount := SettleInsurance(p.Insurance, s.dealer)
		credit += p.Insurance + amount
		net += amount
		fmt.Fprintf(&msg, "Insurance %s\n", money(amount))
	}
	fmt.Fprintf(&msg, "Total: %s", money(net))

	log := s.log.WithFields(logrus.Fields{
		"round":  s.roundID,
		"player": p.ID,
		"credit": credit,
		"net":    net,
	})
	if err := s.adjust(p.ID, credit); err != nil {
		log.WithError(err).Error("payout credit failed")
		s.say("The bank could not pay %s $%d.", p.Name, credit)
	} else {
		log.Info("player settled")
	}

	if rec, ok := s.ledger.(RoundRecorder); ok {
		if err := rec.RecordRound(p.ID, net); err != nil {
			log.WithError(err).Warn("round stats not recorded")
		}
	}

	s.say("%s", msg.String())
}

func money(amount int) string {
	if amount < 0 {
		return fmt.Sprintf("($%d)", -amount)
	}
	return fmt.Sprintf("$%d", amount)
}
