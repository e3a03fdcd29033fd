package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerApplyBet(t *testing.T) {
	l := NewLedger([]string{"a", "b"}, 100)

	require.NoError(t, l.ApplyBet("a", 30, SideWith))
	require.NoError(t, l.ApplyBet("a", 20, SideAgainst))

	r, ok := l.Record("a")
	require.True(t, ok)
	assert.Equal(t, int64(50), r.Balance)
	assert.Equal(t, int64(30), r.WithBet)
	assert.Equal(t, int64(20), r.AgainstBet)
	assert.Equal(t, int64(50), r.RoundTotal)
	assert.Equal(t, int64(20), r.LastBet)
	assert.Equal(t, SideAgainst, r.LastSide)
	assert.Equal(t, int64(30), l.WithPot)
	assert.Equal(t, int64(20), l.AgainstPot)
	assert.Equal(t, int64(200), l.Value())
}

func TestLedgerRejectsWithoutChange(t *testing.T) {
	tests := []struct {
		name   string
		seat   string
		amount int64
		side   Side
		err    error
	}{
		{"unknown seat", "z", 10, SideWith, ErrUnknownSeat},
		{"zero amount", "a", 0, SideWith, ErrInvalidAmount},
		{"negative amount", "a", -5, SideWith, ErrInvalidAmount},
		{"over balance", "a", 101, SideWith, ErrInsufficientBalance},
		{"bad side", "a", 10, SideNone, ErrInvalidSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger([]string{"a"}, 100)
			err := l.ApplyBet(tt.seat, tt.amount, tt.side)
			require.ErrorIs(t, err, tt.err)

			r, _ := l.Record("a")
			assert.Equal(t, SeatRecord{Balance: 100}, r)
			assert.Zero(t, l.WithPot)
			assert.Zero(t, l.AgainstPot)
		})
	}
}

func TestLedgerAllowsWholeBalance(t *testing.T) {
	l := NewLedger([]string{"a"}, 100)
	require.NoError(t, l.ApplyBet("a", 100, SideWith))
	r, _ := l.Record("a")
	assert.Zero(t, r.Balance)
	require.ErrorIs(t, l.ApplyBet("a", 1, SideWith), ErrInsufficientBalance)
}

func TestParseAmount(t *testing.T) {
	valid := map[float64]int64{1: 1, 25: 25, 1e6: 1000000}
	for in, want := range valid {
		got, err := ParseAmount(in)
		require.NoError(t, err, "amount %v", in)
		assert.Equal(t, want, got)
	}

	for _, in := range []float64{0, -1, 2.5, math.NaN(), math.Inf(1), math.Inf(-1), 1e30} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", in)
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("WITH")
	require.NoError(t, err)
	assert.Equal(t, SideWith, s)

	s, err = ParseSide(" against ")
	require.NoError(t, err)
	assert.Equal(t, SideAgainst, s)

	_, err = ParseSide("shooter")
	assert.ErrorIs(t, err, ErrInvalidSide)
}
