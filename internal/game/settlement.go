package game

import "math/bits"

// SeatPayout is one seat's share of a settlement.
type SeatPayout struct {
	Seat       string `json:"seat"`
	WithBet    int64  `json:"withBet"`
	AgainstBet int64  `json:"againstBet"`
	Refund     int64  `json:"refund"`
	Payout     int64  `json:"payout"`
}

// Net is the seat's gain or loss for the round.
func (p SeatPayout) Net() int64 {
	return p.Refund + p.Payout - p.WithBet - p.AgainstBet
}

// Settlement summarises a pari-mutuel resolution.
type Settlement struct {
	Winner       Side         `json:"winner"`
	TotalWith    int64        `json:"totalWith"`
	TotalAgainst int64        `json:"totalAgainst"`
	Matched      int64        `json:"matched"`
	Seats        []SeatPayout `json:"seats"`
	// Residual is the rounding remainder kept by the table.
	Residual int64 `json:"residual"`
}

// Settle resolves every seat's stake against the winning side. Only the
// matched portion of each side is at risk: unmatched stake is refunded and
// winners split twice the matched amount pro rata. Amounts floor, so the
// distributed total can fall short of the staked total by a few chips; that
// shortfall is returned as Residual. All round bookkeeping is cleared.
func Settle(l *Ledger, winner Side) Settlement {
	totalWith, totalAgainst := l.Totals()
	matched := min(totalWith, totalAgainst)

	s := Settlement{
		Winner:       winner,
		TotalWith:    totalWith,
		TotalAgainst: totalAgainst,
		Matched:      matched,
	}

	winnerTotal := totalWith
	if winner == SideAgainst {
		winnerTotal = totalAgainst
	}

	var distributed int64
	for _, seat := range l.order {
		r := l.seats[seat]
		w, a := r.WithBet, r.AgainstBet
		if w == 0 && a == 0 {
			continue
		}

		p := SeatPayout{Seat: seat, WithBet: w, AgainstBet: a}
		if matched == 0 {
			p.Refund = w + a
		} else {
			if w > 0 {
				p.Refund += mulDiv(w, totalWith-matched, totalWith)
			}
			if a > 0 {
				p.Refund += mulDiv(a, totalAgainst-matched, totalAgainst)
			}
			switch {
			case winner == SideWith && w > 0:
				p.Payout = mulDiv(2*w, matched, winnerTotal)
			case winner == SideAgainst && a > 0:
				p.Payout = mulDiv(2*a, matched, winnerTotal)
			}
		}

		r.Balance += p.Refund + p.Payout
		distributed += p.Refund + p.Payout
		s.Seats = append(s.Seats, p)
	}

	s.Residual = totalWith + totalAgainst - distributed
	l.clearRound()
	return s
}

// mulDiv computes floor(a*b/c) without overflowing the intermediate product.
// Callers guarantee b <= c, so the quotient fits in 64 bits.
func mulDiv(a, b, c int64) int64 {
	if a <= 0 || b <= 0 || c <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, _ := bits.Div64(hi, lo, uint64(c))
	return int64(q)
}
