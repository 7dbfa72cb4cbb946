// Package command turns chat text into table operations.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"blackjackbot/internal/game"
)

var ErrUnknownCommand = errors.New("unknown command")

type Verb string

const (
	Join      Verb = "join"
	Hit       Verb = "hit"
	Stand     Verb = "stand"
	Surrender Verb = "surrender"
	Double    Verb = "double"
	Split     Verb = "split"
	Insure    Verb = "insure"
	Bet       Verb = "bet"
	Skip      Verb = "skip"
	Quit      Verb = "quit"
	Hand      Verb = "hand"

	Balance Verb = "balance"
	Top     Verb = "top"
	Help    Verb = "help"
	Start   Verb = "start"
)

var aliases = map[string]Verb{
	"blackjack": Join,
	"bj":        Join,
	"join":      Join,
	"hit":       Hit,
	"twist":     Hit,
	"stand":     Stand,
	"stay":      Stand,
	"stick":     Stand,
	"surrender": Surrender,
	"double":    Double,
	"split":     Split,
	"insure":    Insure,
	"insurance": Insure,
	"bet":       Bet,
	"skip":      Skip,
	"quit":      Quit,
	"hand":      Hand,
	"balance":   Balance,
	"top":       Top,
	"help":      Help,
	"start":     Start,
}

type Command struct {
	Verb     Verb
	Args     []string
	Prefixed bool
}

// Game reports whether the command is handled by the session rather than
// the front end.
func (c Command) Game() bool {
	switch c.Verb {
	case Balance, Top, Help, Start:
		return false
	}
	return true
}

// Parse reads "!hit 2", "/bj@SomeBot 50" or plain "stand". Unprefixed text
// only counts when it is short enough to be a command.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	var cmd Command
	if strings.HasPrefix(text, "!") || strings.HasPrefix(text, "/") {
		cmd.Prefixed = true
		text = text[1:]
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || (!cmd.Prefixed && len(fields) > 2) {
		return Command{}, ErrUnknownCommand
	}

	word := strings.ToLower(fields[0])
	if at := strings.IndexByte(word, '@'); at >= 0 {
		word = word[:at]
	}
	verb, ok := aliases[word]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}
	cmd.Verb = verb
	cmd.Args = fields[1:]

	// "blackjack bet 50" is the long form of "bet 50"
	if verb == Join && len(cmd.Args) > 0 && strings.EqualFold(cmd.Args[0], "bet") {
		cmd.Verb = Bet
		cmd.Args = cmd.Args[1:]
	}
	return cmd, nil
}

// Dispatch runs a game command for who.
func Dispatch(s *game.Session, who game.Identity, cmd Command) error {
	switch cmd.Verb {
	case Join:
		amount, err := amountArg(cmd.Args, false)
		if err != nil {
			return err
		}
		return s.Join(who, amount)
	case Bet:
		amount, err := amountArg(cmd.Args, true)
		if err != nil {
			return err
		}
		return s.Bet(who, amount)
	case Hit, Stand, Surrender, Double, Split:
		index, err := handArg(cmd.Args)
		if err != nil {
			return err
		}
		return handAction(s, cmd.Verb)(who, index)
	case Insure:
		return s.Insure(who)
	case Skip:
		return s.Skip(who)
	case Quit:
		return s.Quit(who)
	case Hand:
		return s.ShowHand(who)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Verb)
}

func handAction(s *game.Session, v Verb) func(game.Identity, int) error {
	switch v {
	case Hit:
		return s.Hit
	case Stand:
		return s.Stand
	case Surrender:
		return s.Surrender
	case Double:
		return s.DoubleDown
	default:
		return s.Split
	}
}

// amountArg parses a wager. A missing optional amount is 0, which the
// session reads as the default bet.
func amountArg(args []string, required bool) (int, error) {
	if len(args) == 0 {
		if required {
			return 0, fmt.Errorf("%w: how much?", game.ErrBadInput)
		}
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "$"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an amount", game.ErrBadInput, args[0])
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: you must bet more than $0", game.ErrBadInput)
	}
	return n, nil
}

// handArg converts the 1-based hand number players type.
func handArg(args []string) (int, error) {
	if len(args) == 0 {
		return game.AnyHand, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a hand number", game.ErrBadInput, args[0])
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: hands are numbered from 1", game.ErrBadHand)
	}
	return n - 1, nil
}

// HelpText lists the commands with the given prefix.
func HelpText(prefix string) string {
	lines := []string{
		"🃏 Blackjack",
		"",
		"%[1]sblackjack [bet], %[1]sbj [bet] - join the table",
		"%[1]sbet <amount> - change your bet before the deal",
		"%[1]sskip - vote to deal now",
		"%[1]shit [hand], %[1]sstand [hand] - draw or stay",
		"%[1]sdouble [hand] - double down with one more card",
		"%[1]ssplit [hand] - split a pair",
		"%[1]ssurrender [hand] - give up half your bet",
		"%[1]sinsure - insure against a dealer blackjack",
		"%[1]shand - show your cards",
		"%[1]squit - leave the table",
		"%[1]sbalance, %[1]stop - your money and the leaderboard",
	}
	return fmt.Sprintf(strings.Join(lines, "\n"), prefix)
}
