package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeJoin        MessageType = "join"
	MessageTypeHeartbeat   MessageType = "heartbeat"
	MessageTypeSeatClaim   MessageType = "seat:claim"
	MessageTypeSeatRelease MessageType = "seat:release"
	MessageTypeBetPlace    MessageType = "bet:place"
	MessageTypeRollRequest MessageType = "roll:request"

	// Server to client messages
	MessageTypeTableState MessageType = "table:state"
	MessageTypeSeatDenied MessageType = "seat:denied"
	MessageTypeError      MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Inbound reports whether clients may send this type.
func (mt MessageType) Inbound() bool {
	switch mt {
	case MessageTypeJoin, MessageTypeHeartbeat, MessageTypeSeatClaim,
		MessageTypeSeatRelease, MessageTypeBetPlace, MessageTypeRollRequest:
		return true
	}
	return false
}
