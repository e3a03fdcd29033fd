package bot

import (
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/server"
)

// Table is the set of actions a bot sends. *client.Client implements it.
type Table interface {
	ClaimSeat(seat string) error
	PlaceBet(seat string, amount int64, side game.Side) error
	RequestRoll(seat string) error
}

// Bot plays one seat from the stream of table snapshots. It claims a seat,
// wagers once per betting phase through its Strategy, and rolls whenever it
// is the shooter and the window is open.
type Bot struct {
	table     Table
	strategy  Strategy
	preferred string
	logger    *log.Logger

	mu        sync.Mutex
	seat      string
	claiming  string
	denied    map[string]bool
	betPlaced bool
	rolled    bool
}

// New creates a bot. preferred may be empty to take any free seat.
func New(table Table, strategy Strategy, preferred string, logger *log.Logger) *Bot {
	return &Bot{
		table:     table,
		strategy:  strategy,
		preferred: preferred,
		logger:    logger.WithPrefix("bot"),
		denied:    make(map[string]bool),
	}
}

// Seat returns the seat the bot believes it holds.
func (b *Bot) Seat() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seat
}

// HandleSeatDenied forgets a refused claim and avoids that seat next time.
func (b *Bot) HandleSeatDenied(d server.SeatDeniedData) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Info("Seat claim denied", "seat", d.Seat)
	b.denied[d.Seat] = true
	if b.claiming == d.Seat {
		b.claiming = ""
	}
	if b.seat == d.Seat {
		b.seat = ""
	}
}

// HandleState reacts to a table snapshot.
func (b *Bot) HandleState(snap game.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trackSeat(snap)
	if snap.Phase != game.PhaseBetting {
		b.betPlaced = false
	}
	if snap.Phase != game.PhaseRollWindow {
		b.rolled = false
	}

	if b.seat == "" {
		b.claim(snap)
		return
	}

	view, _ := snap.Seat(b.seat)
	switch {
	case snap.Phase == game.PhaseBetting && !snap.Rolling:
		b.wager(snap, view)
	case snap.RollWindowOpen && snap.Shooter == b.seat && !b.rolled:
		b.rolled = true
		b.logger.Info("Rolling", "seat", b.seat, "point", pointOf(snap))
		if err := b.table.RequestRoll(b.seat); err != nil {
			b.logger.Warn("Failed to request roll", "error", err)
		}
	}
}

func (b *Bot) trackSeat(snap game.Snapshot) {
	if b.claiming != "" {
		if v, ok := snap.Seat(b.claiming); ok && v.Taken {
			b.seat, b.claiming = b.claiming, ""
			clear(b.denied)
			b.logger.Info("Seated", "seat", b.seat)
		}
	}
	if b.seat != "" {
		if v, ok := snap.Seat(b.seat); !ok || !v.Taken {
			b.logger.Warn("Lost seat", "seat", b.seat)
			b.seat = ""
		}
	}
}

func (b *Bot) claim(snap game.Snapshot) {
	if b.claiming != "" {
		return
	}
	seat := b.pickSeat(snap)
	if seat == "" {
		if len(b.denied) > 0 {
			clear(b.denied)
		}
		return
	}
	b.claiming = seat
	b.logger.Debug("Claiming seat", "seat", seat)
	if err := b.table.ClaimSeat(seat); err != nil {
		b.logger.Warn("Failed to claim seat", "seat", seat, "error", err)
		b.claiming = ""
	}
}

func (b *Bot) pickSeat(snap game.Snapshot) string {
	free := make(map[string]bool)
	for _, s := range snap.Seats {
		if !s.Taken && !b.denied[s.Label] {
			free[s.Label] = true
		}
	}
	if free[b.preferred] {
		return b.preferred
	}
	for _, s := range snap.Seats {
		if free[s.Label] {
			return s.Label
		}
	}
	return ""
}

func (b *Bot) wager(snap game.Snapshot, view game.SeatView) {
	if b.betPlaced || view.WithBet+view.AgainstBet > 0 {
		return
	}
	b.betPlaced = true

	w, ok := b.strategy.MakeWager(snap, view, AllowedSides(snap, b.seat))
	if !ok || w.Amount <= 0 {
		return
	}
	b.logger.Info("Placing bet", "seat", b.seat, "amount", w.Amount, "side", w.Side, "reasoning", w.Reasoning)
	if err := b.table.PlaceBet(b.seat, w.Amount, w.Side); err != nil {
		b.logger.Warn("Failed to place bet", "error", err)
	}
}

func pointOf(snap game.Snapshot) int {
	if snap.Point == nil {
		return 0
	}
	return *snap.Point
}

// deniedSeats returns the seats the bot is currently avoiding.
func (b *Bot) deniedSeats() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Sorted(maps.Keys(b.denied))
}
