// Command console plays the table from one terminal. Every input line is
// "name: command", so several people can share a keyboard.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/command"
	"blackjackbot/internal/config"
	"blackjackbot/internal/database"
	"blackjackbot/internal/feed"
	"blackjackbot/internal/game"
	"blackjackbot/internal/ledger"
)

// printer renders announcements off the session lock.
type printer chan string

func (p printer) Announce(text string) {
	select {
	case p <- text:
	default:
	}
}

func (p printer) run(ctx context.Context) {
	box := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2)
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-p:
			box.WithTitle(pterm.LightYellow("|TABLE|")).Println(text)
		}
	}
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Printfln("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < logrus.DebugLevel {
		// keep the table readable
		log.SetLevel(logrus.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		pterm.Error.Printfln("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	accounts := ledger.New(db.DB, cfg.StartBalance, log)

	out := make(printer, 256)
	go out.run(ctx)

	announcers := game.Announcers{out}
	var hub *feed.Hub
	if cfg.FeedAddr != "" {
		hub = feed.NewHub(log)
		announcers = append(announcers, hub)
	}

	session := game.NewSession(cfg.Rules("!"), accounts, announcers, game.WithLogger(log))
	defer session.Close()

	if hub != nil {
		go func() {
			srv := feed.NewServer(hub, session.Snapshot, log)
			if err := srv.ListenAndServe(ctx, cfg.FeedAddr); err != nil {
				pterm.Error.Printfln("Spectator feed stopped: %v", err)
			}
		}()
		pterm.Info.Printfln("Spectators can watch on %s/ws", cfg.FeedAddr)
	}

	pterm.Info.Println(command.HelpText("!"))
	pterm.Info.Println(`Type "name: command", for example "ann: !bj 50". Ctrl-D quits.`)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			handle(session, accounts, line)
		}
	}
}

func handle(session *game.Session, accounts *ledger.SQLiteLedger, line string) {
	name, text, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		if strings.TrimSpace(line) != "" {
			pterm.Warning.Println(`Use "name: command".`)
		}
		return
	}

	cmd, err := command.Parse(text)
	if err != nil {
		pterm.Warning.Printfln("%s: unknown command", name)
		return
	}

	who := game.Identity{ID: game.PlayerID("console:" + strings.ToLower(name)), Name: name}
	if err := accounts.Remember(who); err != nil {
		pterm.Error.Printfln("Failed to store player: %v", err)
	}

	switch cmd.Verb {
	case command.Help, command.Start:
		pterm.Info.Println(command.HelpText("!"))
	case command.Balance:
		a, err := accounts.Stats(who.ID)
		if err != nil {
			pterm.Error.Printfln("Failed to load account: %v", err)
			return
		}
		pterm.Info.Printfln("%s: $%d, %d rounds, %d won (%.1f%%)", name, a.Balance, a.Games, a.Wins, a.WinRate())
	case command.Top:
		printTop(accounts)
	default:
		if err := command.Dispatch(session, who, cmd); err != nil {
			if errors.Is(err, game.ErrLedger) {
				pterm.Error.Printfln("%s: %v", name, err)
				return
			}
			pterm.Warning.Printfln("%s: %v", name, err)
		}
	}
}

func printTop(accounts *ledger.SQLiteLedger) {
	top, err := accounts.Top(10)
	if err != nil {
		pterm.Error.Printfln("Failed to load leaderboard: %v", err)
		return
	}
	if len(top) == 0 {
		pterm.Info.Println("Nobody has played yet!")
		return
	}

	data := pterm.TableData{{"#", "Player", "Balance", "Rounds", "Won"}}
	for i, a := range top {
		data = append(data, []string{
			fmt.Sprint(i + 1), a.Name, fmt.Sprintf("$%d", a.Balance),
			fmt.Sprint(a.Games), fmt.Sprintf("%.0f%%", a.WinRate()),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Printfln("Failed to render leaderboard: %v", err)
	}
}
