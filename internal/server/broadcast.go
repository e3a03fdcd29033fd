package server

import (
	"github.com/charmbracelet/log"

	"github.com/lox/dicetable/internal/game"
)

// Sender delivers a message to a single connection.
type Sender interface {
	SendTo(connID string, msg *Message) error
}

// Broadcaster fans table messages out to subscribers. A failed delivery
// to one connection never affects the rest.
type Broadcaster struct {
	sender Sender
	logger *log.Logger
}

// NewBroadcaster creates a broadcaster on top of sender.
func NewBroadcaster(sender Sender, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		sender: sender,
		logger: logger.WithPrefix("broadcast"),
	}
}

// State sends the snapshot to every listed connection.
func (b *Broadcaster) State(subscribers []string, snap game.Snapshot) {
	msg, err := NewMessage(MessageTypeTableState, snap)
	if err != nil {
		b.logger.Error("Failed to encode table state", "table", snap.TableID, "error", err)
		return
	}

	count := 0
	for _, conn := range subscribers {
		if err := b.sender.SendTo(conn, msg); err != nil {
			b.logger.Debug("Dropped table state", "table", snap.TableID, "conn", conn, "error", err)
			continue
		}
		count++
	}
	b.logger.Debug("Broadcasted table state", "table", snap.TableID, "recipients", count)
}

// Unicast sends the snapshot to one connection.
func (b *Broadcaster) Unicast(conn string, snap game.Snapshot) {
	b.State([]string{conn}, snap)
}

// SeatDenied tells conn its claim on seat was refused.
func (b *Broadcaster) SeatDenied(conn, tableID, seat string) {
	msg, err := NewMessage(MessageTypeSeatDenied, SeatDeniedData{TableID: tableID, Seat: seat})
	if err != nil {
		b.logger.Error("Failed to encode seat denial", "error", err)
		return
	}
	if err := b.sender.SendTo(conn, msg); err != nil {
		b.logger.Debug("Dropped seat denial", "table", tableID, "conn", conn, "error", err)
	}
}
