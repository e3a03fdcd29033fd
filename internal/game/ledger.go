package game

import (
	"math"
)

// SeatRecord is one seat's balance and in-round wager bookkeeping.
type SeatRecord struct {
	Balance    int64
	WithBet    int64
	AgainstBet int64
	RoundTotal int64
	LastBet    int64
	LastSide   Side
}

// Staked is the seat's outstanding stake this round.
func (r SeatRecord) Staked() int64 {
	return r.WithBet + r.AgainstBet
}

// Ledger tracks every seat's record plus the running pots for the round.
// Balances never go negative.
type Ledger struct {
	order      []string
	seats      map[string]*SeatRecord
	WithPot    int64
	AgainstPot int64
}

// NewLedger seeds every seat with the same starting balance.
func NewLedger(seats []string, startingBalance int64) *Ledger {
	l := &Ledger{
		order: append([]string(nil), seats...),
		seats: make(map[string]*SeatRecord, len(seats)),
	}
	for _, s := range seats {
		l.seats[s] = &SeatRecord{Balance: startingBalance}
	}
	return l
}

// Record returns a copy of the seat's record.
func (l *Ledger) Record(seat string) (SeatRecord, bool) {
	r, ok := l.seats[seat]
	if !ok {
		return SeatRecord{}, false
	}
	return *r, true
}

// ApplyBet moves amount from the seat's balance onto the given side. Role
// and phase checks are the caller's job; this only guards the money.
func (l *Ledger) ApplyBet(seat string, amount int64, side Side) error {
	r, ok := l.seats[seat]
	if !ok {
		return ErrUnknownSeat
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if r.Balance < amount {
		return ErrInsufficientBalance
	}

	switch side {
	case SideWith:
		r.WithBet += amount
		l.WithPot += amount
	case SideAgainst:
		r.AgainstBet += amount
		l.AgainstPot += amount
	default:
		return ErrInvalidSide
	}
	r.Balance -= amount
	r.RoundTotal += amount
	r.LastBet = amount
	r.LastSide = side
	return nil
}

// Totals sums the outstanding stakes on each side.
func (l *Ledger) Totals() (with, against int64) {
	for _, r := range l.seats {
		with += r.WithBet
		against += r.AgainstBet
	}
	return with, against
}

// Value is the sum of all balances plus all outstanding stakes.
func (l *Ledger) Value() int64 {
	var total int64
	for _, r := range l.seats {
		total += r.Balance + r.Staked()
	}
	return total
}

func (l *Ledger) clearRound() {
	for _, r := range l.seats {
		r.WithBet = 0
		r.AgainstBet = 0
		r.RoundTotal = 0
		r.LastBet = 0
		r.LastSide = SideNone
	}
	l.WithPot = 0
	l.AgainstPot = 0
}

// ParseAmount converts a wire amount into whole chips. Fractional, non-finite
// and non-positive values are rejected.
func ParseAmount(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v != math.Trunc(v) || v > math.MaxInt64/4 {
		return 0, ErrInvalidAmount
	}
	return int64(v), nil
}
