package bot

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjackbot/internal/command"
	"blackjackbot/internal/database"
	"blackjackbot/internal/game"
	"blackjackbot/internal/ledger"
)

type fakeSender struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
	fail      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return tgbotapi.Message{}, f.fail
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.messages...)
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	msgs := f.sent()
	if len(msgs) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeSender) lastCallback() tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.callbacks) == 0 {
		return tgbotapi.CallbackConfig{}
	}
	return f.callbacks[len(f.callbacks)-1]
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	handler  *Handler
	sender   *fakeSender
	session  *game.Session
	ledger   *ledger.SQLiteLedger
	announce *ChatAnnouncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := quietLogger()
	l := ledger.New(db.DB, 1000, log)
	sender := &fakeSender{}
	announce := NewChatAnnouncer(sender, log)

	rules := game.DefaultRules()
	rules.Countdown = time.Hour
	rules.CommandPrefix = "/"
	session := game.NewSession(rules, l, announce, game.WithLogger(log))
	t.Cleanup(session.Close)

	return &fixture{
		handler:  NewHandler(sender, l, session, announce, log),
		sender:   sender,
		session:  session,
		ledger:   l,
		announce: announce,
	}
}

func message(chatID, userID int64, name, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 5,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: userID, FirstName: name},
	}
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, game.Identity{ID: "7", Name: "ann"}, identity(&tgbotapi.User{ID: 7, UserName: "ann", FirstName: "Ann"}))
	assert.Equal(t, game.Identity{ID: "7", Name: "Ann Lee"}, identity(&tgbotapi.User{ID: 7, FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, game.Identity{ID: "7", Name: "7"}, identity(&tgbotapi.User{ID: 7}))
}

func TestJoinBindsChat(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(message(100, 1, "Ann", "/bj 50"))
	assert.Equal(t, game.PhaseWaiting, f.session.Phase())
	assert.Equal(t, int64(100), f.announce.Chat())

	balance, err := f.ledger.GetBalance("1")
	require.NoError(t, err)
	assert.Equal(t, 950, balance)

	f.handler.HandleMessage(message(200, 2, "Ben", "/bj 50"))
	reply := f.sender.last()
	assert.Equal(t, int64(200), reply.ChatID)
	assert.Contains(t, reply.Text, "another chat")
	assert.Len(t, f.session.Snapshot().Players, 1)
}

func TestRefusedCommandIsAnswered(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(message(100, 1, "Ann", "/hit"))
	reply := f.sender.last()
	assert.Equal(t, "❌ no game running", reply.Text)
	assert.Equal(t, 5, reply.ReplyToMessageID)

	f.handler.HandleMessage(message(100, 1, "Ann", "/bj 5000"))
	assert.Contains(t, f.sender.last().Text, "insufficient funds")
}

func TestRefusedJoinLeavesChatUnbound(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(message(100, 1, "Ann", "/bj 5000"))
	assert.Equal(t, game.PhaseNoGame, f.session.Phase())
	assert.Zero(t, f.announce.Chat())

	f.handler.HandleMessage(message(200, 2, "Ben", "/bj 50"))
	assert.Equal(t, int64(200), f.announce.Chat())

	f.handler.HandleMessage(message(200, 1, "Ann", "/bj 5000"))
	assert.Equal(t, int64(200), f.announce.Chat(), "a refused join keeps the running game's chat")
}

func TestLeavingChatQuits(t *testing.T) {
	f := newFixture(t)
	f.handler.HandleMessage(message(100, 1, "Ann", "/bj 50"))
	f.handler.HandleMessage(message(100, 2, "Ben", "/bj 50"))
	require.Len(t, f.session.Snapshot().Players, 2)

	left := func(chatID int64, u *tgbotapi.User) *tgbotapi.Message {
		return &tgbotapi.Message{
			Chat:           &tgbotapi.Chat{ID: chatID},
			From:           &tgbotapi.User{ID: 9, FirstName: "Admin"},
			LeftChatMember: u,
		}
	}

	f.handler.HandleMessage(left(200, &tgbotapi.User{ID: 2, FirstName: "Ben"}))
	assert.Len(t, f.session.Snapshot().Players, 2, "leaving another chat changes nothing")

	f.handler.HandleMessage(left(100, &tgbotapi.User{ID: 2, FirstName: "Ben"}))
	players := f.session.Snapshot().Players
	require.Len(t, players, 1)
	assert.Equal(t, "Ann", players[0].Name)

	balance, err := f.ledger.GetBalance("2")
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)

	f.handler.HandleMessage(left(100, &tgbotapi.User{ID: 3, FirstName: "Cat"}))
	assert.Len(t, f.session.Snapshot().Players, 1)
	assert.Equal(t, game.PhaseWaiting, f.session.Phase())
}

func TestUnprefixedChatStaysQuiet(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(message(100, 1, "Ann", "hit"))
	f.handler.HandleMessage(message(100, 1, "Ann", "nice weather today"))
	assert.Empty(t, f.sender.sent())
}

func TestBalanceAndTop(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(message(100, 1, "Ann", "/balance"))
	assert.Contains(t, f.sender.last().Text, "Ann: $1000")

	f.handler.HandleMessage(message(100, 1, "Ann", "/top"))
	assert.Equal(t, "🏆 Nobody has played yet!", f.sender.last().Text)

	require.NoError(t, f.ledger.RecordRound("1", 10))
	f.handler.HandleMessage(message(100, 1, "Ann", "/top"))
	assert.Contains(t, f.sender.last().Text, "🥇 Ann $1000")

	f.handler.HandleMessage(message(100, 1, "Ann", "/help"))
	assert.Contains(t, f.sender.last().Text, "/skip")

	f.handler.HandleMessage(message(100, 1, "Ann", "/start"))
	assert.Contains(t, f.sender.last().Text, "Welcome to Blackjack, Ann")
}

func TestCallbacks(t *testing.T) {
	f := newFixture(t)
	f.handler.HandleMessage(message(100, 1, "Ann", "/bj 10"))

	press := func(data string) tgbotapi.CallbackConfig {
		f.handler.HandleCallback(&tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 1, FirstName: "Ann"},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
			Data:    data,
		})
		return f.sender.lastCallback()
	}

	assert.Contains(t, press(callbackData(command.Hit)).Text, "not allowed right now")
	assert.Contains(t, press(callbackData(command.Balance)).Text, "$990")
	assert.Equal(t, "Unknown button", press("other").Text)

	assert.Empty(t, press(callbackData(command.Skip)).Text)
	assert.NotEqual(t, game.PhaseWaiting, f.session.Phase())
}

func TestHandKeyboard(t *testing.T) {
	kb, ok := HandKeyboard([]game.Action{game.ActionStand, game.ActionSurrender})
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "bj:stand", *kb.InlineKeyboard[0][0].CallbackData)

	_, ok = HandKeyboard(nil)
	assert.False(t, ok)

	cmd, ok := parseCallback("bj:surrender")
	require.True(t, ok)
	assert.Equal(t, command.Surrender, cmd.Verb)
}

func TestAnnouncerPostsToBoundChat(t *testing.T) {
	sender := &fakeSender{}
	a := NewChatAnnouncer(sender, quietLogger())

	a.post("before anyone joined")
	assert.Empty(t, sender.sent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Bind(42)
	a.Announce("Blackjack is starting in 30s.")
	a.Announce(game.ActionPrompt + ": /hit")

	require.Eventually(t, func() bool { return len(sender.sent()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := sender.sent()
	assert.Equal(t, int64(42), msgs[0].ChatID)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msgs[0].ReplyMarkup)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msgs[1].ReplyMarkup)
}

func TestAnnouncerSurvivesSendErrors(t *testing.T) {
	sender := &fakeSender{fail: errors.New("flood wait")}
	a := NewChatAnnouncer(sender, quietLogger())
	a.Bind(1)

	for i := 0; i < announceQueue+10; i++ {
		a.Announce("spam")
	}
	a.post("one")
	assert.Empty(t, sender.sent())
}
