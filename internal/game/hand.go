package game

import (
	"fmt"
	"strings"
)

type HandState int

const (
	HandOpen HandState = iota
	HandStand
	HandDoubleDown
	HandSurrender
	HandBlackjack
	HandBust
	HandSplit
	HandAceSplit
	HandCharlie
)

func (s HandState) String() string {
	switch s {
	case HandOpen:
		return ""
	case HandStand:
		return "Stand"
	case HandDoubleDown:
		return "Double Down"
	case HandSurrender:
		return "Surrender"
	case HandBlackjack:
		return "Blackjack"
	case HandBust:
		return "Bust"
	case HandSplit:
		return "Split"
	case HandAceSplit:
		return "Ace Split"
	case HandCharlie:
		return "Charlie"
	default:
		return fmt.Sprintf("HandState(%d)", int(s))
	}
}

// Terminal reports whether a hand in this state is finished. The open state
// and both split markers still accept actions.
func (s HandState) Terminal() bool {
	switch s {
	case HandOpen, HandSplit, HandAceSplit:
		return false
	case HandStand, HandDoubleDown, HandSurrender, HandBlackjack, HandBust, HandCharlie:
		return true
	default:
		return true
	}
}

const (
	blackjackTotal = 21
	DefaultCharlie = 8
)

type Hand struct {
	Cards []Card
	State HandState
	Soft  bool

	charlie int
}

func NewHand(charlie int) *Hand {
	if charlie <= 0 {
		charlie = DefaultCharlie
	}
	return &Hand{
		Cards:   make([]Card, 0, 10),
		charlie: charlie,
	}
}

// Score counts aces as 11 and demotes them to 1 one at a time while the
// total is over 21. soft is true when an ace is still counted high.
func Score(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += c.Rank.Value()
		if c.Rank == Ace {
			aces++
		}
	}

	for total > blackjackTotal && aces > 0 {
		total -= 10
		aces--
	}

	return total, aces > 0
}

func (h *Hand) Score() int {
	total, _ := Score(h.Cards)
	return total
}

func (h *Hand) Done() bool {
	return h.State.Terminal()
}

// Natural is a two card 21 that was tagged before anything else happened to
// the hand.
func (h *Hand) Natural() bool {
	return h.State == HandBlackjack
}

func (h *Hand) Deal(cards ...Card) {
	h.Cards = append(h.Cards, cards...)
	h.evaluate()
}

func (h *Hand) evaluate() {
	total, soft := Score(h.Cards)
	h.Soft = soft

	switch {
	case total > blackjackTotal:
		h.State = HandBust
	case len(h.Cards) == 2 && total == blackjackTotal && h.State == HandOpen:
		h.State = HandBlackjack
	case total == blackjackTotal:
		h.State = HandStand
	case len(h.Cards) >= h.charlie:
		h.State = HandCharlie
	}
}

// Pair reports whether the hand is exactly two cards of the same rank.
func (h *Hand) Pair() bool {
	return len(h.Cards) == 2 && h.Cards[0].Rank == h.Cards[1].Rank
}

func (h *Hand) hidden() bool {
	for _, c := range h.Cards {
		if c.FaceDown {
			return true
		}
	}
	return false
}

func (h *Hand) reveal() {
	for i := range h.Cards {
		h.Cards[i].FaceDown = false
	}
}

func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	out := strings.Join(parts, " ")

	if h.hidden() {
		return out
	}
	if label := h.State.String(); label != "" {
		out += " " + label
	}
	return out
}
