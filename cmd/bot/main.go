package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"blackjackbot/internal/bot"
	"blackjackbot/internal/config"
	"blackjackbot/internal/database"
	"blackjackbot/internal/feed"
	"blackjackbot/internal/game"
	"blackjackbot/internal/ledger"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireToken(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.WithField("path", cfg.DatabasePath).Info("database connected")

	accounts := ledger.New(db.DB, cfg.StartBalance, log.WithField("component", "ledger"))

	b, err := bot.New(cfg.BotToken, log.WithField("component", "bot"))
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	announcers := game.Announcers{b.Announcer()}
	var hub *feed.Hub
	if cfg.FeedAddr != "" {
		hub = feed.NewHub(log.WithField("component", "feed"))
		announcers = append(announcers, hub)
	}

	session := game.NewSession(cfg.Rules("/"), accounts, announcers,
		game.WithLogger(log.WithField("component", "table")))
	defer session.Close()

	if hub != nil {
		srv := feed.NewServer(hub, session.Snapshot, log.WithField("component", "feed"))
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.FeedAddr); err != nil {
				log.WithError(err).Error("spectator feed stopped")
			}
		}()
	}

	b.Attach(session, accounts)
	if err := b.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Info("shutting down")
}
