package bot

import (
	"context"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const announceQueue = 128

// ChatAnnouncer posts table announcements to the chat the session is bound
// to. Announce only queues, so the session lock is never held across a
// Telegram request.
type ChatAnnouncer struct {
	api   Sender
	chat  atomic.Int64
	queue chan string
	log   logrus.FieldLogger
}

func NewChatAnnouncer(api Sender, log logrus.FieldLogger) *ChatAnnouncer {
	return &ChatAnnouncer{
		api:   api,
		queue: make(chan string, announceQueue),
		log:   log,
	}
}

func (a *ChatAnnouncer) Bind(chatID int64) { a.chat.Store(chatID) }

// Chat is the bound chat, or 0.
func (a *ChatAnnouncer) Chat() int64 { return a.chat.Load() }

func (a *ChatAnnouncer) Announce(text string) {
	select {
	case a.queue <- text:
	default:
		a.log.WithField("text", text).Warn("announcement queue full, message dropped")
	}
}

// Run sends queued announcements in order until ctx is done.
func (a *ChatAnnouncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-a.queue:
			a.post(text)
		}
	}
}

func (a *ChatAnnouncer) post(text string) {
	chatID := a.Chat()
	if chatID == 0 {
		a.log.WithField("text", text).Debug("no chat bound, announcement skipped")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	switch {
	case strings.HasPrefix(text, game.ActionPrompt):
		msg.ReplyMarkup = TableKeyboard()
	case strings.HasPrefix(text, "Blackjack is starting"):
		msg.ReplyMarkup = WaitingKeyboard()
	}
	if _, err := a.api.Send(msg); err != nil {
		a.log.WithField("chat", chatID).WithError(err).Error("failed to send announcement")
	}
}
