package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/dicetable/internal/game"
)

// Actions is what an interactive watcher can send. *client.Client
// implements it.
type Actions interface {
	ClaimSeat(seat string) error
	ReleaseSeat() error
	PlaceBet(seat string, amount int64, side game.Side) error
	RequestRoll(seat string) error
}

// CommandKind identifies a typed command.
type CommandKind string

const (
	CommandSit   CommandKind = "sit"
	CommandLeave CommandKind = "leave"
	CommandBet   CommandKind = "bet"
	CommandRoll  CommandKind = "roll"
	CommandQuit  CommandKind = "quit"
)

// Command is a parsed input line.
type Command struct {
	Kind   CommandKind
	Seat   string
	Amount int64
	Side   game.Side
}

var errEmptyCommand = errors.New("empty command")

// ParseCommand understands:
//
//	sit <seat>          claim a seat (alias: claim)
//	leave               release the held seat (alias: release)
//	bet <amount> <side> wager with or against the shooter
//	roll                throw the dice
//	quit                exit (alias: exit)
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, errEmptyCommand
	}

	switch strings.ToLower(fields[0]) {
	case "sit", "claim":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: sit <seat>")
		}
		return Command{Kind: CommandSit, Seat: fields[1]}, nil
	case "leave", "release":
		return Command{Kind: CommandLeave}, nil
	case "bet":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("usage: bet <amount> <with|against>")
		}
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("invalid amount %q", fields[1])
		}
		side, err := game.ParseSide(fields[2])
		if err != nil {
			return Command{}, fmt.Errorf("side must be with or against")
		}
		return Command{Kind: CommandBet, Amount: amount, Side: side}, nil
	case "roll":
		return Command{Kind: CommandRoll}, nil
	case "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}
