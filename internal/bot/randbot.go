package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/dicetable/internal/game"
)

// RandBot stakes a random number of min-bet units on a random allowed side.
type RandBot struct {
	rng         *rand.Rand
	maxUnits    int
	probability float64
	logger      *log.Logger
}

// NewRandBot creates a RandBot that bets in probability of rounds, between
// one and maxUnits minimum bets at a time.
func NewRandBot(rng *rand.Rand, maxUnits int, probability float64, logger *log.Logger) *RandBot {
	if maxUnits < 1 {
		maxUnits = 1
	}
	return &RandBot{rng: rng, maxUnits: maxUnits, probability: probability, logger: logger}
}

func (r *RandBot) MakeWager(snap game.Snapshot, seat game.SeatView, sides []game.Side) (Wager, bool) {
	if len(sides) == 0 || seat.Balance < snap.MinBet {
		return Wager{}, false
	}
	if r.rng.Float64() >= r.probability {
		return Wager{}, false
	}

	amount := snap.MinBet * int64(1+r.rng.IntN(r.maxUnits))
	if amount > seat.Balance {
		amount = seat.Balance - seat.Balance%snap.MinBet
	}
	return Wager{
		Amount:    amount,
		Side:      sides[r.rng.IntN(len(sides))],
		Reasoning: "rand-bot random stake",
	}, true
}
