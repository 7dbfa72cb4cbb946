package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		ranks []Rank
		total int
		soft  bool
	}{
		{"natural", []Rank{Ace, King}, 21, true},
		{"pair of aces", []Rank{Ace, Ace}, 12, true},
		{"aces and a ten", []Rank{Ace, Ace, King}, 12, false},
		{"soft seventeen", []Rank{Ace, Six}, 17, true},
		{"hard seventeen", []Rank{Ace, Six, Ten}, 17, false},
		{"bust", []Rank{Ten, Six, Seven}, 23, false},
		{"faces", []Rank{Jack, Queen}, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, soft := Score(cards(tt.ranks...))
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.soft, soft)
		})
	}
}

func TestHandStateAssignment(t *testing.T) {
	h := NewHand(DefaultCharlie)
	h.Deal(cards(Ace, Queen)...)
	assert.Equal(t, HandBlackjack, h.State)
	assert.True(t, h.Done())
	assert.True(t, h.Natural())

	h = NewHand(DefaultCharlie)
	h.Deal(cards(Five, Six)...)
	assert.Equal(t, HandOpen, h.State)
	h.Deal(card(King))
	assert.Equal(t, HandStand, h.State, "21 on three cards is not a natural")

	h = NewHand(DefaultCharlie)
	h.Deal(cards(Ten, Six)...)
	h.Deal(card(Seven))
	assert.Equal(t, HandBust, h.State)
	assert.Equal(t, 23, h.Score())

	h = NewHand(DefaultCharlie)
	h.Deal(cards(Ace, Ace, Ace, Ace, Two, Two, Two)...)
	assert.Equal(t, HandOpen, h.State)
	h.Deal(card(Two))
	assert.Equal(t, HandCharlie, h.State)
	assert.Equal(t, 12, h.Score())
}

func TestSplitHandTwentyOneIsNotNatural(t *testing.T) {
	h := NewHand(DefaultCharlie)
	h.Cards = cards(Ace)
	h.State = HandAceSplit
	assert.False(t, h.Done())

	h.Deal(card(King))
	assert.Equal(t, HandStand, h.State)
	assert.False(t, h.Natural())
}

func TestHandScoreInvariant(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(42)))

	for i := 0; i < 2000; i++ {
		h := NewHand(DefaultCharlie)
		h.Deal(deck.Draw(), deck.Draw())
		for !h.Done() {
			h.Deal(deck.Draw())
		}

		if h.State == HandBust {
			require.Greater(t, h.Score(), 21, h.String())
		} else {
			require.LessOrEqual(t, h.Score(), 21, h.String())
		}
		if h.State == HandBlackjack {
			require.Len(t, h.Cards, 2)
		}
	}
}

func TestHandStringHidesState(t *testing.T) {
	h := NewHand(DefaultCharlie)
	h.Deal(Card{Suit: Hearts, Rank: Ace}, Card{Suit: Spades, Rank: King})
	h.Cards[1].FaceDown = true

	assert.Equal(t, "A♥ 🂠", h.String())

	h.reveal()
	assert.Equal(t, "A♥ K♠ Blackjack", h.String())
}

func TestHandStateTerminal(t *testing.T) {
	open := map[HandState]bool{HandOpen: true, HandSplit: true, HandAceSplit: true}
	for s := HandOpen; s <= HandCharlie; s++ {
		assert.Equal(t, !open[s], s.Terminal(), s.String())
	}
}
