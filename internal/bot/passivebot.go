package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/dicetable/internal/game"
)

// PassiveBot holds a seat and throws the dice when it shoots but never bets.
type PassiveBot struct {
	logger *log.Logger
}

// NewPassiveBot creates a new PassiveBot instance
func NewPassiveBot(logger *log.Logger) *PassiveBot {
	return &PassiveBot{logger: logger}
}

func (p *PassiveBot) MakeWager(game.Snapshot, game.SeatView, []game.Side) (Wager, bool) {
	return Wager{}, false
}
