package game

import (
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func card(r Rank) Card {
	return Card{Suit: Spades, Rank: r}
}

func cards(ranks ...Rank) []Card {
	out := make([]Card, len(ranks))
	for i, r := range ranks {
		out[i] = card(r)
	}
	return out
}

// handOf builds a hand with a fixed state, bypassing evaluation.
func handOf(state HandState, ranks ...Rank) *Hand {
	h := NewHand(DefaultCharlie)
	h.Cards = cards(ranks...)
	_, h.Soft = Score(h.Cards)
	h.State = state
	return h
}

// stackedDeck deals the given cards in order, then falls back to a seeded deck.
type stackedDeck struct {
	mu    sync.Mutex
	cards []Card
	rest  *Deck
}

func stack(ranks ...Rank) *stackedDeck {
	return &stackedDeck{
		cards: cards(ranks...),
		rest:  NewDeck(rand.New(rand.NewSource(1))),
	}
}

func (d *stackedDeck) Draw() Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.cards) == 0 {
		return d.rest.Draw()
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

type fakeLedger struct {
	mu          sync.Mutex
	start       int
	balances    map[PlayerID]int
	adjustments map[PlayerID][]int
	rounds      map[PlayerID][]int
	failAdjust  error
}

func newFakeLedger(start int) *fakeLedger {
	return &fakeLedger{
		start:       start,
		balances:    make(map[PlayerID]int),
		adjustments: make(map[PlayerID][]int),
		rounds:      make(map[PlayerID][]int),
	}
}

func (l *fakeLedger) balance(id PlayerID) int {
	if b, ok := l.balances[id]; ok {
		return b
	}
	return l.start
}

func (l *fakeLedger) GetBalance(id PlayerID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(id), nil
}

func (l *fakeLedger) AdjustBalance(id PlayerID, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAdjust != nil {
		return l.failAdjust
	}
	b := l.balance(id)
	if b+amount < 0 {
		return ErrInsufficientFunds
	}
	l.balances[id] = b + amount
	l.adjustments[id] = append(l.adjustments[id], amount)
	return nil
}

func (l *fakeLedger) RecordRound(id PlayerID, net int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rounds[id] = append(l.rounds[id], net)
	return nil
}

func (l *fakeLedger) failWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAdjust = err
}

func (l *fakeLedger) adjusted(id PlayerID) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.adjustments[id]...)
}

func (l *fakeLedger) roundNets(id PlayerID) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.rounds[id]...)
}

func (l *fakeLedger) current(id PlayerID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(id)
}

var errBankDown = errors.New("bank is down")

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Announce(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
}

func (r *recorder) contains(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func (r *recorder) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

var (
	alice = Identity{ID: "alice", Name: "Alice"}
	bob   = Identity{ID: "bob", Name: "Bob"}
)

func testRules() Rules {
	r := DefaultRules()
	r.Countdown = time.Hour
	r.DealerDelay = time.Millisecond
	r.MinBet = 1
	return r
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSession(t *testing.T, rules Rules, deck CardSource) (*Session, *fakeLedger, *recorder) {
	t.Helper()
	ledger := newFakeLedger(1000)
	rec := &recorder{}
	s := NewSession(rules, ledger, rec, WithDeck(deck), WithLogger(quietLogger()))
	t.Cleanup(s.Close)
	return s, ledger, rec
}
