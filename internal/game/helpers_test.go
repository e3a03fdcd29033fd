package game

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// scriptedDice replays die faces (1-6) in order.
type scriptedDice struct {
	faces []int
	next  int
}

func (s *scriptedDice) IntN(n int) int {
	face := s.faces[s.next%len(s.faces)]
	s.next++
	return face - 1
}

func dice(faces ...int) *scriptedDice {
	return &scriptedDice{faces: faces}
}

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BettingSeconds = 2
	cfg.RollWindowSeconds = 2
	return cfg
}

func newTestTable(t *testing.T, src DiceSource) *Table {
	t.Helper()
	tbl, err := NewTable("t1", testConfig(), src, testLogger())
	require.NoError(t, err)
	return tbl
}

// seat claims each seat for a connection named after it.
func seat(t *testing.T, tbl *Table, seats ...string) {
	t.Helper()
	for _, s := range seats {
		require.NoError(t, tbl.Claim("conn-"+s, s, epoch))
	}
}

// openWindow ticks through the betting countdown.
func openWindow(t *testing.T, tbl *Table) {
	t.Helper()
	for i := 0; i < 100 && tbl.Phase() == PhaseBetting; i++ {
		tbl.Tick(epoch)
	}
	require.Equal(t, PhaseRollWindow, tbl.Phase())
}

// roll opens the window, has the shooter throw and resolves the throw.
func roll(t *testing.T, tbl *Table) Resolution {
	t.Helper()
	openWindow(t, tbl)
	shooter := tbl.Roles().Shooter
	p, err := tbl.RequestRoll("conn-"+shooter, shooter)
	require.NoError(t, err)
	res, ok := tbl.CompleteRoll(*p)
	require.True(t, ok)
	return res
}
