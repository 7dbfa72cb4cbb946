package game

import (
	"math/rand"
	"sync"
	"time"
)

// CardSource hands out cards to the table. The session only ever draws from it.
type CardSource interface {
	Draw() Card
}

// Deck is a single 52 card deck with a draw cursor. It reshuffles itself
// when the cursor runs off the end.
type Deck struct {
	mu       sync.Mutex
	cards    []Card
	pos      int
	rng      *rand.Rand
	shuffles int
}

func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	for _, suit := range suits {
		for _, rank := range ranks {
			d.cards = append(d.cards, Card{Suit: suit, Rank: rank})
		}
	}

	d.Shuffle()
	return d
}

func (d *Deck) Shuffle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shuffle()
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	d.pos = 0
	d.shuffles++
}

func (d *Deck) Draw() Card {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pos >= len(d.cards) {
		d.shuffle()
	}

	card := d.cards[d.pos]
	d.pos++
	return card
}

func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards) - d.pos
}

// Shuffles reports how many times the deck has been shuffled, including the
// initial shuffle.
func (d *Deck) Shuffles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shuffles
}
