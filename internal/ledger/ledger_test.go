package ledger

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjackbot/internal/database"
	"blackjackbot/internal/game"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(db.DB, 1000, log)
}

func TestGetBalanceCreatesAccount(t *testing.T) {
	l := newTestLedger(t)

	balance, err := l.GetBalance("42")
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)

	require.NoError(t, l.AdjustBalance("42", -250))
	balance, err = l.GetBalance("42")
	require.NoError(t, err)
	assert.Equal(t, 750, balance)
}

func TestAdjustBalanceNeverGoesNegative(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.AdjustBalance("7", -1000))
	err := l.AdjustBalance("7", -1)
	assert.ErrorIs(t, err, game.ErrInsufficientFunds)

	balance, err := l.GetBalance("7")
	require.NoError(t, err)
	assert.Zero(t, balance)

	require.NoError(t, l.AdjustBalance("7", 0))
	require.NoError(t, l.AdjustBalance("7", 35))
	balance, err = l.GetBalance("7")
	require.NoError(t, err)
	assert.Equal(t, 35, balance)
}

func TestRecordRound(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.AdjustBalance("1", 0))
	require.NoError(t, l.RecordRound("1", 150))
	require.NoError(t, l.RecordRound("1", -100))
	require.NoError(t, l.RecordRound("1", 0))
	require.NoError(t, l.RecordRound("1", 20))

	a, err := l.Stats("1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, 1, a.Draws)
	assert.Equal(t, 4, a.Games)
	assert.InDelta(t, 50.0, a.WinRate(), 0.001)
}

func TestTopOrdersByBalance(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Remember(game.Identity{ID: "a", Name: "Ann"}))
	require.NoError(t, l.Remember(game.Identity{ID: "b", Name: "Ben"}))
	require.NoError(t, l.Remember(game.Identity{ID: "c", Name: "Cat"}))

	require.NoError(t, l.AdjustBalance("a", 500))
	require.NoError(t, l.AdjustBalance("b", -300))
	require.NoError(t, l.RecordRound("a", 500))
	require.NoError(t, l.RecordRound("b", -300))

	top, err := l.Top(10)
	require.NoError(t, err)
	require.Len(t, top, 2, "players without a finished round are left out")
	assert.Equal(t, "Ann", top[0].Name)
	assert.Equal(t, 1500, top[0].Balance)
	assert.Equal(t, game.PlayerID("b"), top[1].ID)

	top, err = l.Top(1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestRememberUpdatesName(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Remember(game.Identity{ID: "a", Name: "Ann"}))
	require.NoError(t, l.Remember(game.Identity{ID: "a", Name: "Annie"}))

	a, err := l.Stats("a")
	require.NoError(t, err)
	assert.Equal(t, "Annie", a.Name)
	assert.Equal(t, 1000, a.Balance)
}

func TestSessionRoundThroughLedger(t *testing.T) {
	l := newTestLedger(t)
	var _ game.Ledger = l
	var _ game.RoundRecorder = l

	who := game.Identity{ID: "p", Name: "P"}
	s := game.NewSession(game.DefaultRules(), l, nil)
	defer s.Close()

	require.NoError(t, s.Join(who, 300))
	balance, err := l.GetBalance(who.ID)
	require.NoError(t, err)
	assert.Equal(t, 700, balance)

	require.NoError(t, s.Quit(who))
	balance, err = l.GetBalance(who.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)
}
