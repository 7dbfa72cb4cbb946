package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"blackjackbot/internal/command"
	"blackjackbot/internal/game"
)

const callbackPrefix = "bj:"

var actionButtons = map[game.Action]struct {
	label string
	verb  command.Verb
}{
	game.ActionHit:       {"👊 Hit", command.Hit},
	game.ActionStand:     {"✋ Stand", command.Stand},
	game.ActionDouble:    {"💰 Double", command.Double},
	game.ActionSplit:     {"✂️ Split", command.Split},
	game.ActionSurrender: {"🏳 Surrender", command.Surrender},
	game.ActionInsure:    {"🛡 Insure", command.Insure},
}

func callbackData(v command.Verb) string {
	return callbackPrefix + string(v)
}

// parseCallback turns button data back into a command.
func parseCallback(data string) (command.Command, bool) {
	if !strings.HasPrefix(data, callbackPrefix) {
		return command.Command{}, false
	}
	cmd, err := command.Parse("/" + strings.TrimPrefix(data, callbackPrefix))
	return cmd, err == nil
}

// TableKeyboard goes with the announcement that opens the players' turn.
// Every player shares it; illegal presses are answered with the reason.
func TableKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👊 Hit", callbackData(command.Hit)),
			tgbotapi.NewInlineKeyboardButtonData("✋ Stand", callbackData(command.Stand)),
			tgbotapi.NewInlineKeyboardButtonData("💰 Double", callbackData(command.Double)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✂️ Split", callbackData(command.Split)),
			tgbotapi.NewInlineKeyboardButtonData("🏳 Surrender", callbackData(command.Surrender)),
			tgbotapi.NewInlineKeyboardButtonData("🃏 Hand", callbackData(command.Hand)),
		),
	)
}

// HandKeyboard offers only the actions legal for one player's hand.
func HandKeyboard(actions []game.Action) (tgbotapi.InlineKeyboardMarkup, bool) {
	var row []tgbotapi.InlineKeyboardButton
	for _, a := range actions {
		b, ok := actionButtons[a]
		if !ok {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.label, callbackData(b.verb)))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}

// WaitingKeyboard goes with the countdown announcement.
func WaitingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎰 Join", callbackData(command.Join)),
			tgbotapi.NewInlineKeyboardButtonData("⏩ Skip", callbackData(command.Skip)),
			tgbotapi.NewInlineKeyboardButtonData("💵 Balance", callbackData(command.Balance)),
		),
	)
}
