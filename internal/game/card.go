package game

import "strconv"

type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitSymbols = [...]string{"♣", "♦", "♥", "♠"}

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return "?"
	}
	return suitSymbols[s]
}

type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var (
	suits = []Suit{Clubs, Diamonds, Hearts, Spades}
	ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Value is the blackjack value of the rank with aces counted high.
func (r Rank) Value() int {
	switch {
	case r == Ace:
		return 11
	case r >= Jack:
		return 10
	default:
		return int(r)
	}
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

type Card struct {
	Suit     Suit
	Rank     Rank
	FaceDown bool
}

const hiddenCard = "🂠"

func (c Card) String() string {
	if c.FaceDown {
		return hiddenCard
	}
	return c.Rank.String() + c.Suit.String()
}
