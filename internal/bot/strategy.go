package bot

import (
	"github.com/lox/dicetable/internal/game"
)

// Wager is a strategy's betting decision.
type Wager struct {
	Amount    int64
	Side      game.Side
	Reasoning string
}

// Strategy decides what a seated bot stakes during a betting phase. It
// returns false to sit the round out.
type Strategy interface {
	MakeWager(snap game.Snapshot, seat game.SeatView, sides []game.Side) (Wager, bool)
}

// AllowedSides lists the sides seat may take. The shooter only bets with
// itself, the fader only against, and a lone occupant holding both roles
// may not bet at all.
func AllowedSides(snap game.Snapshot, seat string) []game.Side {
	switch {
	case snap.Shooter == snap.Fader:
		return nil
	case seat == snap.Shooter:
		return []game.Side{game.SideWith}
	case seat == snap.Fader:
		return []game.Side{game.SideAgainst}
	}
	return []game.Side{game.SideWith, game.SideAgainst}
}
