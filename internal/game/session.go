package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
)

// Ledger holds player balances. The session never touches storage itself.
type Ledger interface {
	GetBalance(id PlayerID) (int, error)
	AdjustBalance(id PlayerID, amount int) error
}

// RoundRecorder is implemented by ledgers that keep win/loss statistics.
type RoundRecorder interface {
	RecordRound(id PlayerID, net int) error
}

// Announcer publishes table messages. It is called with the session lock
// held and must not block.
type Announcer interface {
	Announce(text string)
}

type AnnouncerFunc func(text string)

func (f AnnouncerFunc) Announce(text string) { f(text) }

// Announcers sends every message to each announcer in turn.
type Announcers []Announcer

func (a Announcers) Announce(text string) {
	for _, an := range a {
		an.Announce(text)
	}
}

// ActionPrompt opens the announcement that the players' turn has started.
const ActionPrompt = "Place your actions"

type Rules struct {
	Countdown      time.Duration
	CountdownTicks int
	TickInterval   time.Duration
	DealerDelay    time.Duration
	CharlieCards   int
	DefaultBet     int
	MinBet         int
	MaxBet         int
	CommandPrefix  string
}

func DefaultRules() Rules {
	return Rules{
		Countdown:      30 * time.Second,
		CountdownTicks: 3,
		TickInterval:   time.Second,
		DealerDelay:    3 * time.Second,
		CharlieCards:   DefaultCharlie,
		DefaultBet:     100,
		MinBet:         1,
		MaxBet:         0,
		CommandPrefix:  "!",
	}
}

type Option func(*Session)

func WithDeck(d CardSource) Option {
	return func(s *Session) { s.deck = d }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// Session is the one live blackjack table. Every exported method takes the
// session lock, and so do the countdown and dealer callbacks.
type Session struct {
	mu sync.Mutex

	rules    Rules
	ledger   Ledger
	announce Announcer
	log      logrus.FieldLogger
	deck     CardSource

	ctx    context.Context
	cancel context.CancelFunc

	phase   Phase
	epoch   uint64
	roundID uuid.UUID

	players map[PlayerID]*Player
	seating []PlayerID
	queue   []*Player
	dealer  *Hand
	skips   map[PlayerID]struct{}

	countdown    *Countdown
	countdownSeq uint64
	canInsure    bool
}

func NewSession(rules Rules, ledger Ledger, announcer Announcer, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		rules:    rules,
		ledger:   ledger,
		announce: announcer,
		log:      logrus.StandardLogger(),
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseNoGame,
		players:  make(map[PlayerID]*Player),
		skips:    make(map[PlayerID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deck == nil {
		s.deck = NewDeck(nil)
	}
	if s.rules.TickInterval <= 0 {
		s.rules.TickInterval = time.Second
	}
	s.dealer = s.newHand()
	return s
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Close stops the countdown and the dealer and gives back every stake that
// has not been settled. The session is unusable after.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdown()
	s.epoch++
	s.cancel()

	for _, id := range s.seating {
		s.refund(s.players[id])
	}
	for _, p := range s.queue {
		s.refund(p)
	}
	s.players = make(map[PlayerID]*Player)
	s.seating = nil
	s.queue = nil
}

func (s *Session) refund(p *Player) {
	amount := p.Staked()
	if amount == 0 {
		return
	}
	if err := s.adjust(p.ID, amount); err != nil {
		s.log.WithFields(logrus.Fields{"player": p.ID, "amount": amount}).WithError(err).Error("refund on close failed")
		return
	}
	s.log.WithFields(logrus.Fields{"player": p.ID, "amount": amount}).Info("stake refunded on close")
}

// do runs op under the session lock and logs rejected commands.
func (s *Session) do(op string, who PlayerID, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"op":     op,
			"player": who,
			"phase":  s.phase,
		}).WithError(err).Debug("command rejected")
	}
	return err
}

// debugEnabled reports whether log would keep a Debug entry. Unknown
// FieldLogger implementations are assumed to.
func debugEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

func (s *Session) say(format string, args ...any) {
	if s.announce == nil {
		return
	}
	s.announce.Announce(fmt.Sprintf(format, args...))
}

func (s *Session) newHand() *Hand {
	return NewHand(s.rules.CharlieCards)
}

func (s *Session) transition(next Phase) error {
	if s.phase == PhaseNoGame && next != PhaseWaiting {
		return fmt.Errorf("%w: cannot enter %s", ErrNoGame, next)
	}

	prev := s.phase
	s.phase = next
	s.epoch++

	s.log.WithFields(logrus.Fields{
		"round": s.roundID,
		"from":  prev,
		"phase": next,
	}).Info("phase change")
	if debugEnabled(s.log) {
		s.log.WithField("table", litter.Sdump(s.snapshot())).Debug("table state")
	}

	switch next {
	case PhaseNoGame:
		s.enterNoGame()
		return nil
	case PhaseWaiting:
		return s.enterWaiting()
	case PhaseDealing:
		return s.enterDealing()
	case PhasePlayerTurn:
		s.say(ActionPrompt+": %[1]shit, %[1]sstand, %[1]sdouble, %[1]ssplit or %[1]ssurrender.", s.rules.CommandPrefix)
		return nil
	case PhaseDealerTurn:
		s.enterDealerTurn()
		return nil
	case PhasePayout:
		return s.enterPayout()
	default:
		return fmt.Errorf("unhandled phase %s", next)
	}
}

func (s *Session) enterNoGame() {
	s.stopCountdown()
	s.players = make(map[PlayerID]*Player)
	s.seating = nil
	s.queue = nil
	s.skips = make(map[PlayerID]struct{})
	s.dealer = s.newHand()
	s.canInsure = false
	s.say("Blackjack... is OVER!")
}

func (s *Session) enterWaiting() error {
	s.skips = make(map[PlayerID]struct{})
	s.dealer = s.newHand()
	s.canInsure = false
	s.roundID = uuid.New()

	s.promoteQueue()

	for _, id := range append([]PlayerID(nil), s.seating...) {
		p := s.players[id]
		if p.staked {
			continue
		}
		if err := s.charge(id, p.Wager); err != nil {
			s.unseat(id)
			s.say("%s can't cover a $%d bet and leaves the table.", p.Name, p.Wager)
			continue
		}
		p.staked = true
	}

	if len(s.players) == 0 {
		return s.transition(PhaseNoGame)
	}

	s.say("Blackjack is starting in %s.\nJoin with %[2]sblackjack [bet] or %[2]sbj [bet]. Vote %[2]sskip to start now.",
		s.rules.Countdown, s.rules.CommandPrefix)
	s.startCountdown()
	return nil
}

func (s *Session) enterDealing() error {
	s.stopCountdown()
	s.skips = make(map[PlayerID]struct{})
	s.promoteQueue()

	if len(s.players) == 0 {
		return s.transition(PhaseNoGame)
	}

	s.dealer = s.newHand()
	s.dealer.Deal(s.deck.Draw(), s.deck.Draw())
	s.dealer.Cards[1].FaceDown = true
	s.say("Dealer:\n%s", s.dealer)

	for _, id := range s.seating {
		p := s.players[id]
		h := s.newHand()
		h.Deal(s.deck.Draw(), s.deck.Draw())
		p.Hands = []*Hand{h}
		s.say("%s", playerSummary(p))
	}

	s.canInsure = s.dealer.Cards[0].Rank == Ace
	if s.canInsure {
		s.say("Dealer has an ace. Insurance can be bought with %sinsure.", s.rules.CommandPrefix)
	}

	if s.allDone() {
		return s.transition(PhaseDealerTurn)
	}
	return s.transition(PhasePlayerTurn)
}

func (s *Session) allDone() bool {
	for _, p := range s.players {
		if !p.Done() {
			return false
		}
	}
	return true
}

// afterHandAction moves on to the dealer once nobody has an open hand.
func (s *Session) afterHandAction() error {
	if s.phase == PhasePlayerTurn && s.allDone() {
		return s.transition(PhaseDealerTurn)
	}
	return nil
}

func (s *Session) startCountdown() {
	s.stopCountdown()
	s.countdownSeq++
	seq := s.countdownSeq
	s.countdown = StartCountdown(s.ctx, s.rules.Countdown, s.rules.TickInterval, s.rules.CountdownTicks,
		func(n int) { s.countdownTick(seq, n) },
		func() { s.countdownExpired(seq) },
	)
}

func (s *Session) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

func (s *Session) countdownLive(seq uint64) bool {
	return s.countdown != nil && seq == s.countdownSeq && s.phase == PhaseWaiting
}

func (s *Session) countdownTick(seq uint64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.countdownLive(seq) {
		return
	}
	s.say("%d...", n)
}

func (s *Session) countdownExpired(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.countdownLive(seq) {
		s.log.WithField("countdown", seq).Debug("stale countdown expiry ignored")
		return
	}
	s.countdown = nil
	if err := s.transition(PhaseDealing); err != nil {
		s.log.WithError(err).Error("countdown could not start the deal")
	}
}

func (s *Session) seat(p *Player) {
	s.players[p.ID] = p
	s.seating = append(s.seating, p.ID)
}

func (s *Session) unseat(id PlayerID) {
	delete(s.players, id)
	delete(s.skips, id)
	for i, sid := range s.seating {
		if sid == id {
			s.seating = append(s.seating[:i], s.seating[i+1:]...)
			break
		}
	}
}

func (s *Session) promoteQueue() {
	for _, p := range s.queue {
		s.seat(p)
	}
	s.queue = nil
}

func (s *Session) queued(id PlayerID) int {
	for i, p := range s.queue {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// charge checks the balance and then debits amount.
func (s *Session) charge(id PlayerID, amount int) error {
	if amount <= 0 {
		return nil
	}

	balance, err := s.ledger.GetBalance(id)
	if err != nil {
		s.log.WithField("player", id).WithError(err).Error("balance lookup failed")
		return fmt.Errorf("%w: %v", ErrLedger, err)
	}
	if balance < amount {
		return fmt.Errorf("%w: you need $%d but have $%d", ErrInsufficientFunds, amount, balance)
	}
	return s.adjust(id, -amount)
}

func (s *Session) adjust(id PlayerID, amount int) error {
	if err := s.ledger.AdjustBalance(id, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return err
		}
		s.log.WithFields(logrus.Fields{"player": id, "amount": amount}).WithError(err).Error("ledger adjustment failed")
		return fmt.Errorf("%w: %v", ErrLedger, err)
	}
	return nil
}
