package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

type Config struct {
	BotToken     string
	DatabasePath string
	StartBalance int
	DefaultBet   int
	MinBet       int
	MaxBet       int

	Countdown      time.Duration
	CountdownTicks int
	DealerDelay    time.Duration
	CharlieCards   int

	LogLevel logrus.Level
	FeedAddr string
}

var ErrNoToken = errors.New("BOT_TOKEN is not set")

// Load reads an optional .env file and then the environment. BOT_TOKEN is
// not checked here; front ends that need it call RequireToken.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		FeedAddr:     os.Getenv("FEED_ADDR"),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./blackjack.db"
	}

	var err error
	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"START_BALANCE", 1000, &cfg.StartBalance},
		{"DEFAULT_BET", 100, &cfg.DefaultBet},
		{"MIN_BET", 10, &cfg.MinBet},
		{"MAX_BET", 10000, &cfg.MaxBet},
		{"COUNTDOWN_TICKS", 3, &cfg.CountdownTicks},
		{"CHARLIE_CARDS", game.DefaultCharlie, &cfg.CharlieCards},
	}
	for _, v := range ints {
		if *v.dst, err = intEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if cfg.Countdown, err = durationEnv("COUNTDOWN", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DealerDelay, err = durationEnv("DEALER_DELAY", 3*time.Second); err != nil {
		return nil, err
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if cfg.LogLevel, err = logrus.ParseLevel(level); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.StartBalance < 0:
		return fmt.Errorf("START_BALANCE must not be negative")
	case c.MinBet <= 0:
		return fmt.Errorf("MIN_BET must be positive")
	case c.MaxBet > 0 && c.MaxBet < c.MinBet:
		return fmt.Errorf("MAX_BET %d is below MIN_BET %d", c.MaxBet, c.MinBet)
	case c.DefaultBet < c.MinBet || (c.MaxBet > 0 && c.DefaultBet > c.MaxBet):
		return fmt.Errorf("DEFAULT_BET %d is outside the bet limits", c.DefaultBet)
	case c.Countdown <= 0:
		return fmt.Errorf("COUNTDOWN must be positive")
	case c.CountdownTicks < 0:
		return fmt.Errorf("COUNTDOWN_TICKS must not be negative")
	case c.DealerDelay < 0:
		return fmt.Errorf("DEALER_DELAY must not be negative")
	case c.CharlieCards < 3:
		return fmt.Errorf("CHARLIE_CARDS must be at least 3")
	}
	return nil
}

func (c *Config) RequireToken() error {
	if c.BotToken == "" {
		return ErrNoToken
	}
	return nil
}

// Rules converts the table settings for the game session.
func (c *Config) Rules(prefix string) game.Rules {
	r := game.DefaultRules()
	r.Countdown = c.Countdown
	r.CountdownTicks = c.CountdownTicks
	r.DealerDelay = c.DealerDelay
	r.CharlieCards = c.CharlieCards
	r.DefaultBet = c.DefaultBet
	r.MinBet = c.MinBet
	r.MaxBet = c.MaxBet
	r.CommandPrefix = prefix
	return r
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}

// durationEnv accepts Go durations ("45s", "1m") or a bare number of seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}
