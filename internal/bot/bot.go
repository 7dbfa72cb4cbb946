package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handler  *Handler
	announce *ChatAnnouncer
	log      logrus.FieldLogger
}

// New connects to Telegram. The returned announcer must be handed to the
// session before the bot runs.
func New(token string, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:      api,
		announce: NewChatAnnouncer(api, log),
		log:      log,
	}, nil
}

func (b *Bot) Announcer() *ChatAnnouncer { return b.announce }

// Attach wires the bot to the table and the accounts it serves.
func (b *Bot) Attach(session *game.Session, accounts Accounts) {
	b.handler = NewHandler(b.api, accounts, session, b.announce, b.log)
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.WithField("bot", b.api.Self.UserName).Info("bot started")

	go b.announce.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				go b.handler.HandleCallback(update.CallbackQuery)
				continue
			}

			if update.Message != nil {
				go b.handler.HandleMessage(update.Message)
			}
		}
	}
}
