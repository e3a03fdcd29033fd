package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleMatchedExample(t *testing.T) {
	l := NewLedger([]string{"a", "b"}, 1000)
	require.NoError(t, l.ApplyBet("a", 100, SideWith))
	require.NoError(t, l.ApplyBet("b", 40, SideAgainst))

	s := Settle(l, SideWith)

	assert.Equal(t, int64(40), s.Matched)
	require.Len(t, s.Seats, 2)
	assert.Equal(t, SeatPayout{Seat: "a", WithBet: 100, Refund: 60, Payout: 80}, s.Seats[0])
	assert.Equal(t, SeatPayout{Seat: "b", AgainstBet: 40}, s.Seats[1])
	assert.Equal(t, int64(40), s.Seats[0].Net())
	assert.Equal(t, int64(-40), s.Seats[1].Net())
	assert.Zero(t, s.Residual)

	a, _ := l.Record("a")
	b, _ := l.Record("b")
	assert.Equal(t, int64(1040), a.Balance)
	assert.Equal(t, int64(960), b.Balance)
}

func TestSettleAgainstWins(t *testing.T) {
	l := NewLedger([]string{"a", "b", "c"}, 1000)
	require.NoError(t, l.ApplyBet("a", 100, SideWith))
	require.NoError(t, l.ApplyBet("b", 30, SideAgainst))
	require.NoError(t, l.ApplyBet("c", 70, SideAgainst))

	s := Settle(l, SideAgainst)

	assert.Equal(t, int64(100), s.Matched)
	a, _ := l.Record("a")
	b, _ := l.Record("b")
	c, _ := l.Record("c")
	assert.Equal(t, int64(900), a.Balance)
	assert.Equal(t, int64(1030), b.Balance)
	assert.Equal(t, int64(1070), c.Balance)
}

func TestSettleZeroMatchRefunds(t *testing.T) {
	for _, winner := range []Side{SideWith, SideAgainst} {
		t.Run(string(winner), func(t *testing.T) {
			l := NewLedger([]string{"a", "b"}, 1000)
			require.NoError(t, l.ApplyBet("a", 50, SideWith))

			s := Settle(l, winner)

			assert.Zero(t, s.Matched)
			require.Len(t, s.Seats, 1)
			assert.Equal(t, int64(50), s.Seats[0].Refund)
			assert.Zero(t, s.Seats[0].Payout)
			a, _ := l.Record("a")
			assert.Equal(t, int64(1000), a.Balance)
		})
	}
}

func TestSettleClearsRound(t *testing.T) {
	l := NewLedger([]string{"a", "b"}, 1000)
	require.NoError(t, l.ApplyBet("a", 10, SideWith))
	require.NoError(t, l.ApplyBet("b", 10, SideAgainst))
	require.NoError(t, l.ApplyBet("b", 5, SideWith))

	Settle(l, SideWith)

	for _, seat := range []string{"a", "b"} {
		r, _ := l.Record(seat)
		assert.Zero(t, r.WithBet, seat)
		assert.Zero(t, r.AgainstBet, seat)
		assert.Zero(t, r.RoundTotal, seat)
		assert.Zero(t, r.LastBet, seat)
		assert.Equal(t, SideNone, r.LastSide, seat)
	}
	assert.Zero(t, l.WithPot)
	assert.Zero(t, l.AgainstPot)
}

func TestSettleRoundingGoesToResidual(t *testing.T) {
	l := NewLedger([]string{"a", "b", "c", "d"}, 1000)
	require.NoError(t, l.ApplyBet("a", 1, SideWith))
	require.NoError(t, l.ApplyBet("b", 1, SideWith))
	require.NoError(t, l.ApplyBet("c", 1, SideWith))
	require.NoError(t, l.ApplyBet("d", 2, SideAgainst))

	before := l.Value()
	s := Settle(l, SideWith)

	// each with-seat: refund floor(1/3)=0, payout floor(4/3)=1
	for _, p := range s.Seats[:3] {
		assert.Zero(t, p.Refund)
		assert.Equal(t, int64(1), p.Payout)
	}
	assert.Equal(t, int64(2), s.Residual)
	assert.Equal(t, before, l.Value()+s.Residual)
}

func TestSettleConservesValue(t *testing.T) {
	seats := SeatLabels(7)
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 500; round++ {
		l := NewLedger(seats, 1000)
		for i := 0; i < rng.IntN(12); i++ {
			side := SideWith
			if rng.IntN(2) == 0 {
				side = SideAgainst
			}
			_ = l.ApplyBet(seats[rng.IntN(len(seats))], int64(rng.IntN(300)+1), side)
		}
		before := l.Value()
		totalWith, totalAgainst := l.Totals()

		winner := SideWith
		if rng.IntN(2) == 0 {
			winner = SideAgainst
		}
		s := Settle(l, winner)

		require.Equal(t, before, l.Value()+s.Residual, "round %d", round)
		require.GreaterOrEqual(t, s.Residual, int64(0))
		require.Less(t, s.Residual, int64(3*len(seats)))

		var payouts int64
		for _, p := range s.Seats {
			payouts += p.Payout
		}
		require.LessOrEqual(t, payouts, 2*min(totalWith, totalAgainst))

		w, a := l.Totals()
		require.Zero(t, w)
		require.Zero(t, a)
	}
}

func TestMulDivLargeValues(t *testing.T) {
	const big = int64(1) << 61
	assert.Equal(t, big/2, mulDiv(big, big/2, big))
	assert.Zero(t, mulDiv(0, 5, 10))
	assert.Zero(t, mulDiv(5, 5, 0))
}
