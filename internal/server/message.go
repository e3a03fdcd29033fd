package server

import (
	"encoding/json"
	"time"

	"github.com/lox/dicetable/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	TableID string `json:"tableId"`
	MinBet  *int64 `json:"minBet,omitempty"`
}

// TableRef is the payload of heartbeat and seat:release.
type TableRef struct {
	TableID string `json:"tableId"`
}

// SeatData is the payload of seat:claim and roll:request.
type SeatData struct {
	TableID string `json:"tableId"`
	Seat    string `json:"seat"`
}

// BetData carries the raw amount; integer and range checks happen in the
// game package so a fractional amount is rejected rather than truncated.
type BetData struct {
	TableID string  `json:"tableId"`
	Seat    string  `json:"seat"`
	Amount  float64 `json:"amount"`
	Side    string  `json:"side"`
}

// Server → Client Messages

// TableStateData is the full sanitized table snapshot.
type TableStateData = game.Snapshot

type SeatDeniedData struct {
	TableID string `json:"tableId"`
	Seat    string `json:"seat"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TableSummary is one row of the /tables listing.
type TableSummary struct {
	ID          string     `json:"id"`
	MinBet      int64      `json:"minBet"`
	Seats       int        `json:"seats"`
	Occupied    int        `json:"occupied"`
	Subscribers int        `json:"subscribers"`
	Phase       game.Phase `json:"phase"`
	Rounds      int        `json:"rounds"`
}
