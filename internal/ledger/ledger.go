package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

// Account is one row of the players table.
type Account struct {
	ID      game.PlayerID
	Name    string
	Balance int
	Wins    int
	Losses  int
	Draws   int
	Games   int
}

func (a Account) WinRate() float64 {
	if a.Games == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.Games) * 100
}

// SQLiteLedger keeps balances and round statistics in the players table.
// It satisfies game.Ledger and game.RoundRecorder.
type SQLiteLedger struct {
	db           *sql.DB
	startBalance int
	log          logrus.FieldLogger
}

func New(db *sql.DB, startBalance int, log logrus.FieldLogger) *SQLiteLedger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SQLiteLedger{db: db, startBalance: startBalance, log: log}
}

func (l *SQLiteLedger) ensure(id game.PlayerID) error {
	_, err := l.db.Exec(`
		INSERT OR IGNORE INTO players (player_id, balance)
		VALUES (?, ?)
	`, id, l.startBalance)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// Remember stores the display name used by the leaderboard.
func (l *SQLiteLedger) Remember(who game.Identity) error {
	if err := l.ensure(who.ID); err != nil {
		return err
	}
	_, err := l.db.Exec(`
		UPDATE players SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE player_id = ? AND name != ?
	`, who.Name, who.ID, who.Name)
	if err != nil {
		return fmt.Errorf("failed to save player name: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) GetBalance(id game.PlayerID) (int, error) {
	if err := l.ensure(id); err != nil {
		return 0, err
	}

	var balance int
	err := l.db.QueryRow(`SELECT balance FROM players WHERE player_id = ?`, id).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// AdjustBalance applies amount in a single statement. A change that would
// leave the balance negative fails with game.ErrInsufficientFunds and
// leaves the row alone.
func (l *SQLiteLedger) AdjustBalance(id game.PlayerID, amount int) error {
	if err := l.ensure(id); err != nil {
		return err
	}

	res, err := l.db.Exec(`
		UPDATE players SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		WHERE player_id = ? AND balance + ? >= 0
	`, amount, id, amount)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: cannot apply %d to %s", game.ErrInsufficientFunds, amount, id)
	}

	l.log.WithFields(logrus.Fields{"player": id, "amount": amount}).Debug("balance adjusted")
	return nil
}

// RecordRound counts a finished round as a win, loss or draw by the sign of
// net.
func (l *SQLiteLedger) RecordRound(id game.PlayerID, net int) error {
	column := "draws"
	switch {
	case net > 0:
		column = "wins"
	case net < 0:
		column = "losses"
	}

	_, err := l.db.Exec(`
		UPDATE players SET `+column+` = `+column+` + 1, games = games + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE player_id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to record round: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Stats(id game.PlayerID) (*Account, error) {
	if err := l.ensure(id); err != nil {
		return nil, err
	}

	a := &Account{ID: id}
	err := l.db.QueryRow(`
		SELECT name, balance, wins, losses, draws, games
		FROM players WHERE player_id = ?
	`, id).Scan(&a.Name, &a.Balance, &a.Wins, &a.Losses, &a.Draws, &a.Games)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s vanished", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return a, nil
}

// Top is the leaderboard of players who have finished at least one round.
func (l *SQLiteLedger) Top(limit int) ([]Account, error) {
	rows, err := l.db.Query(`
		SELECT player_id, name, balance, wins, losses, draws, games
		FROM players
		WHERE games > 0
		ORDER BY balance DESC, player_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.Wins, &a.Losses, &a.Draws, &a.Games); err != nil {
			return nil, err
		}
		top = append(top, a)
	}

	return top, rows.Err()
}
