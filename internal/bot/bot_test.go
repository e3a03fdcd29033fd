package bot

import (
	"io"
	rand "math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/server"
)

type call struct {
	kind   string
	seat   string
	amount int64
	side   game.Side
}

type fakeTable struct {
	calls []call
}

func (f *fakeTable) ClaimSeat(seat string) error {
	f.calls = append(f.calls, call{kind: "claim", seat: seat})
	return nil
}

func (f *fakeTable) PlaceBet(seat string, amount int64, side game.Side) error {
	f.calls = append(f.calls, call{kind: "bet", seat: seat, amount: amount, side: side})
	return nil
}

func (f *fakeTable) RequestRoll(seat string) error {
	f.calls = append(f.calls, call{kind: "roll", seat: seat})
	return nil
}

// fixedStrategy always stakes amount on the first allowed side.
type fixedStrategy struct{ amount int64 }

func (s fixedStrategy) MakeWager(_ game.Snapshot, _ game.SeatView, sides []game.Side) (Wager, bool) {
	if len(sides) == 0 {
		return Wager{}, false
	}
	return Wager{Amount: s.amount, Side: sides[0]}, true
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func snapshot(phase game.Phase, shooter, fader string, taken ...string) game.Snapshot {
	s := game.Snapshot{
		TableID: "t1",
		MinBet:  5,
		Shooter: shooter,
		Fader:   fader,
		Phase:   phase,
	}
	for _, label := range game.SeatLabels(4) {
		s.Seats = append(s.Seats, game.SeatView{Label: label, Balance: 1000})
	}
	for _, label := range taken {
		for i := range s.Seats {
			if s.Seats[i].Label == label {
				s.Seats[i].Taken = true
			}
		}
	}
	if phase == game.PhaseRollWindow {
		s.RollWindowOpen = true
		s.RollCountdown = 3
	}
	return s
}

func TestAllowedSides(t *testing.T) {
	t.Parallel()
	s := snapshot(game.PhaseBetting, "seat1", "seat4", "seat1", "seat2", "seat4")
	assert.Equal(t, []game.Side{game.SideWith}, AllowedSides(s, "seat1"))
	assert.Equal(t, []game.Side{game.SideAgainst}, AllowedSides(s, "seat4"))
	assert.Equal(t, []game.Side{game.SideWith, game.SideAgainst}, AllowedSides(s, "seat2"))

	lone := snapshot(game.PhaseBetting, "seat1", "seat1", "seat1")
	assert.Empty(t, AllowedSides(lone, "seat1"))
}

func TestBotClaimsPreferredSeat(t *testing.T) {
	t.Parallel()
	table := &fakeTable{}
	b := New(table, fixedStrategy{amount: 10}, "seat3", testLogger())

	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	require.Equal(t, []call{{kind: "claim", seat: "seat3"}}, table.calls, "one claim in flight at a time")

	b.HandleState(snapshot(game.PhaseBetting, "seat3", "seat3", "seat3"))
	assert.Equal(t, "seat3", b.Seat())
}

func TestBotFallsBackAfterDenial(t *testing.T) {
	t.Parallel()
	table := &fakeTable{}
	b := New(table, fixedStrategy{amount: 10}, "seat1", testLogger())

	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat1", "seat1"))
	assert.Equal(t, "seat1", b.Seat(), "taken seat looks like ours until denied")

	b.HandleSeatDenied(server.SeatDeniedData{TableID: "t1", Seat: "seat1"})
	assert.Empty(t, b.Seat())
	assert.Equal(t, []string{"seat1"}, b.deniedSeats())

	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat1", "seat1"))
	assert.Equal(t, call{kind: "claim", seat: "seat2"}, table.calls[len(table.calls)-1])
}

func TestBotBetsOncePerBettingPhase(t *testing.T) {
	t.Parallel()
	table := &fakeTable{}
	b := New(table, fixedStrategy{amount: 20}, "seat2", testLogger())
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4", "seat1", "seat4"))
	table.calls = nil

	s := snapshot(game.PhaseBetting, "seat1", "seat4", "seat1", "seat2", "seat4")
	b.HandleState(s)
	b.HandleState(s)
	require.Equal(t, []call{{kind: "bet", seat: "seat2", amount: 20, side: game.SideWith}}, table.calls)

	b.HandleState(snapshot(game.PhaseRollWindow, "seat1", "seat4", "seat1", "seat2", "seat4"))
	b.HandleState(s)
	assert.Len(t, table.calls, 2, "a new betting phase allows a new bet")

	staked := snapshot(game.PhaseRollWindow, "seat1", "seat4", "seat1", "seat2", "seat4")
	b.HandleState(staked)
	staked.Phase = game.PhaseBetting
	staked.RollWindowOpen = false
	staked.Seats[1].WithBet = 20
	b.HandleState(staked)
	assert.Len(t, table.calls, 2, "carried-over stake is not topped up")
}

func TestBotRollsAsShooter(t *testing.T) {
	t.Parallel()
	table := &fakeTable{}
	b := New(table, NewPassiveBot(testLogger()), "seat1", testLogger())
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4", "seat1", "seat4"))
	table.calls = nil

	window := snapshot(game.PhaseRollWindow, "seat1", "seat4", "seat1", "seat4")
	b.HandleState(window)
	b.HandleState(window)
	require.Equal(t, []call{{kind: "roll", seat: "seat1"}}, table.calls)

	rolling := window
	rolling.Phase = game.PhaseRolling
	rolling.Rolling = true
	rolling.RollWindowOpen = false
	b.HandleState(rolling)
	b.HandleState(window)
	assert.Len(t, table.calls, 2, "next window rolls again")
}

func TestBotReclaimsAfterEviction(t *testing.T) {
	t.Parallel()
	table := &fakeTable{}
	b := New(table, NewPassiveBot(testLogger()), "seat2", testLogger())
	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	b.HandleState(snapshot(game.PhaseBetting, "seat2", "seat2", "seat2"))
	require.Equal(t, "seat2", b.Seat())

	b.HandleState(snapshot(game.PhaseBetting, "seat1", "seat4"))
	assert.Empty(t, b.Seat())
	assert.Equal(t, call{kind: "claim", seat: "seat2"}, table.calls[len(table.calls)-1])
}

func TestRandBot(t *testing.T) {
	t.Parallel()
	r := NewRandBot(rand.New(rand.NewPCG(1, 2)), 4, 1, testLogger())
	s := snapshot(game.PhaseBetting, "seat1", "seat4", "seat1", "seat2", "seat4")

	for range 50 {
		w, ok := r.MakeWager(s, s.Seats[1], AllowedSides(s, "seat2"))
		require.True(t, ok)
		assert.Zero(t, w.Amount%5)
		assert.GreaterOrEqual(t, w.Amount, int64(5))
		assert.LessOrEqual(t, w.Amount, int64(20))
		assert.Contains(t, []game.Side{game.SideWith, game.SideAgainst}, w.Side)
	}

	_, ok := r.MakeWager(s, s.Seats[0], nil)
	assert.False(t, ok)

	poor := s.Seats[1]
	poor.Balance = 12
	for range 20 {
		w, ok := r.MakeWager(s, poor, AllowedSides(s, "seat2"))
		require.True(t, ok)
		assert.LessOrEqual(t, w.Amount, int64(10))
	}

	never := NewRandBot(rand.New(rand.NewPCG(1, 2)), 4, 0, testLogger())
	_, ok = never.MakeWager(s, s.Seats[1], AllowedSides(s, "seat2"))
	assert.False(t, ok)
}
