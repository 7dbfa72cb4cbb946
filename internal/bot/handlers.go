package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/command"
	"blackjackbot/internal/game"
	"blackjackbot/internal/ledger"
)

// Accounts is the ledger as the front end sees it.
type Accounts interface {
	Remember(who game.Identity) error
	Stats(id game.PlayerID) (*ledger.Account, error)
	Top(limit int) ([]ledger.Account, error)
}

type Handler struct {
	bot      Sender
	accounts Accounts
	session  *game.Session
	announce *ChatAnnouncer
	log      logrus.FieldLogger

	// held while a command may bind the session to a chat
	bindMu sync.Mutex
}

func NewHandler(bot Sender, accounts Accounts, session *game.Session, announce *ChatAnnouncer, log logrus.FieldLogger) *Handler {
	return &Handler{
		bot:      bot,
		accounts: accounts,
		session:  session,
		announce: announce,
		log:      log,
	}
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.WithField("chat", chatID).WithError(err).Error("failed to send message")
	}
}

func (h *Handler) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := h.bot.Send(msg); err != nil {
		h.log.WithField("chat", chatID).WithError(err).Error("failed to send message")
	}
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.log.WithError(err).Debug("failed to answer callback")
	}
}

func identity(u *tgbotapi.User) game.Identity {
	name := u.UserName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return game.Identity{ID: game.PlayerID(strconv.FormatInt(u.ID, 10)), Name: name}
}

// errorText is what the player sees when a command is refused.
func errorText(err error) string {
	if errors.Is(err, game.ErrLedger) {
		return "❌ The bank is unavailable. Try again later."
	}
	return "❌ " + err.Error()
}

func (h *Handler) HandleStart(chatID int64, who game.Identity) {
	a, err := h.accounts.Stats(who.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to load account")
		h.send(chatID, "❌ Something went wrong. Try again later.")
		return
	}
	h.send(chatID, fmt.Sprintf("🎰 Welcome to Blackjack, %s!\n\n💵 Balance: $%d\n\n%s",
		who.Name, a.Balance, command.HelpText("/")))
}

func (h *Handler) HandleHelp(chatID int64) {
	h.send(chatID, command.HelpText("/"))
}

func (h *Handler) balanceText(who game.Identity) (string, error) {
	a, err := h.accounts.Stats(who.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"💰 %s: $%d\n\n"+
			"🎮 Rounds: %d\n"+
			"✅ Won: %d (%.1f%%)\n"+
			"❌ Lost: %d\n"+
			"🤝 Pushed: %d",
		who.Name, a.Balance, a.Games, a.Wins, a.WinRate(), a.Losses, a.Draws), nil
}

func (h *Handler) HandleBalance(chatID int64, who game.Identity) {
	text, err := h.balanceText(who)
	if err != nil {
		h.log.WithError(err).Error("failed to load account")
		h.send(chatID, "❌ Something went wrong. Try again later.")
		return
	}
	h.send(chatID, text)
}

func (h *Handler) HandleTop(chatID int64) {
	top, err := h.accounts.Top(10)
	if err != nil {
		h.log.WithError(err).Error("failed to load leaderboard")
		h.send(chatID, "❌ Something went wrong. Try again later.")
		return
	}

	if len(top) == 0 {
		h.send(chatID, "🏆 Nobody has played yet!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Top players:\n\n")

	medals := []string{"🥇", "🥈", "🥉"}
	for i, a := range top {
		medal := fmt.Sprintf("%d.", i+1)
		if i < 3 {
			medal = medals[i]
		}
		name := a.Name
		if name == "" {
			name = string(a.ID)
		}
		fmt.Fprintf(&sb, "%s %s $%d | %d rounds (%.0f%%)\n", medal, name, a.Balance, a.Games, a.WinRate())
	}

	h.send(chatID, sb.String())
}

// play runs a game command from chatID. The first join from any chat binds
// the session there; other chats are turned away until the session ends.
func (h *Handler) play(chatID int64, who game.Identity, cmd command.Command) error {
	h.bindMu.Lock()
	defer h.bindMu.Unlock()

	bound := h.announce.Chat()
	if h.session.Phase() != game.PhaseNoGame {
		if bound != chatID {
			return errors.New("a game is already running in another chat")
		}
		return command.Dispatch(h.session, who, cmd)
	}

	if cmd.Verb != command.Join {
		return game.ErrNoGame
	}
	// the join announces itself, so the chat is bound first and put back if
	// the join is refused
	h.announce.Bind(chatID)
	if err := command.Dispatch(h.session, who, cmd); err != nil {
		if h.session.Phase() == game.PhaseNoGame {
			h.announce.Bind(bound)
		}
		return err
	}
	if bound != chatID {
		h.log.WithField("chat", chatID).Info("session bound to chat")
	}
	return nil
}

// leave removes a member who left the bound chat from the table.
func (h *Handler) leave(chatID int64, u *tgbotapi.User) {
	if chatID != h.announce.Chat() {
		return
	}
	who := identity(u)
	err := h.session.Quit(who)
	if err != nil && !errors.Is(err, game.ErrNotSeated) && !errors.Is(err, game.ErrNoGame) {
		h.log.WithField("player", who.ID).WithError(err).Warn("failed to remove player who left the chat")
	}
}

func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.LeftChatMember != nil {
		h.leave(msg.Chat.ID, msg.LeftChatMember)
		return
	}
	if msg.From == nil {
		return
	}
	cmd, err := command.Parse(msg.Text)
	if err != nil {
		return
	}

	chatID := msg.Chat.ID
	who := identity(msg.From)
	if err := h.accounts.Remember(who); err != nil {
		h.log.WithField("player", who.ID).WithError(err).Warn("failed to store player name")
	}

	switch cmd.Verb {
	case command.Start:
		h.HandleStart(chatID, who)
		return
	case command.Help:
		h.HandleHelp(chatID)
		return
	case command.Balance:
		h.HandleBalance(chatID, who)
		return
	case command.Top:
		h.HandleTop(chatID)
		return
	}

	err = h.play(chatID, who, cmd)
	switch {
	case err == nil:
		if cmd.Verb == command.Hand {
			h.offerActions(chatID, who)
		}
	case cmd.Prefixed:
		reply := tgbotapi.NewMessage(chatID, errorText(err))
		reply.ReplyToMessageID = msg.MessageID
		if _, err := h.bot.Send(reply); err != nil {
			h.log.WithError(err).Error("failed to send message")
		}
	}
}

// offerActions sends a keyboard with the caller's legal actions, if any.
func (h *Handler) offerActions(chatID int64, who game.Identity) {
	kb, ok := HandKeyboard(h.session.Actions(who, game.AnyHand))
	if !ok {
		return
	}
	h.sendWithKeyboard(chatID, who.Name+", your move:", kb)
}

func (h *Handler) HandleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		h.answerCallback(cb.ID, "")
		return
	}
	cmd, ok := parseCallback(cb.Data)
	if !ok {
		h.answerCallback(cb.ID, "Unknown button")
		return
	}

	chatID := cb.Message.Chat.ID
	who := identity(cb.From)
	if err := h.accounts.Remember(who); err != nil {
		h.log.WithField("player", who.ID).WithError(err).Warn("failed to store player name")
	}

	if cmd.Verb == command.Balance {
		text, err := h.balanceText(who)
		if err != nil {
			h.answerCallback(cb.ID, "❌ Something went wrong")
			return
		}
		h.answerCallback(cb.ID, text)
		return
	}

	if err := h.play(chatID, who, cmd); err != nil {
		h.answerCallback(cb.ID, errorText(err))
		return
	}
	h.answerCallback(cb.ID, "")
}
