package server

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID string

	conn      *websocket.Conn
	send      chan *Message
	registry  *Registry
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	tables    map[string]bool
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, registry *Registry, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Connection{
		ID:       id,
		conn:     conn,
		send:     make(chan *Message, 256),
		registry: registry,
		logger:   logger.WithPrefix("conn").With("conn", id),
		ctx:      ctx,
		cancel:   cancel,
		tables:   make(map[string]bool),
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer closes the
// connection rather than blocking the table that is broadcasting.
func (c *Connection) SendMessage(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// send channel closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
			err = ErrConnectionClosed
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Tables returns the ids of tables this connection joined.
func (c *Connection) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.tables))
}

func (c *Connection) addTable(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[id] = true
}

// leaveAll drops the connection's subscriptions. Seats are left to the
// heartbeat timeout.
func (c *Connection) leaveAll() {
	for _, id := range c.Tables() {
		if room, ok := c.registry.Get(id); ok {
			room.Leave(c.ID)
		}
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid_message", "Message is not a valid envelope")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)
	if !msg.Type.Inbound() {
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if !c.decode(msg, &data) {
			return
		}
		c.handleJoin(data)

	case MessageTypeHeartbeat:
		var data TableRef
		if !c.decode(msg, &data) {
			return
		}
		if room := c.room(data.TableID); room != nil {
			room.Heartbeat(c.ID)
		}

	case MessageTypeSeatClaim:
		var data SeatData
		if !c.decode(msg, &data) {
			return
		}
		if room := c.room(data.TableID); room != nil {
			_ = room.ClaimSeat(c.ID, data.Seat)
		}

	case MessageTypeSeatRelease:
		var data TableRef
		if !c.decode(msg, &data) {
			return
		}
		if room := c.room(data.TableID); room != nil {
			room.ReleaseSeat(c.ID)
		}

	case MessageTypeBetPlace:
		var data BetData
		if !c.decode(msg, &data) {
			return
		}
		if room := c.room(data.TableID); room != nil {
			_ = room.PlaceBet(c.ID, data.Seat, data.Amount, data.Side)
		}

	case MessageTypeRollRequest:
		var data SeatData
		if !c.decode(msg, &data) {
			return
		}
		if room := c.room(data.TableID); room != nil {
			_ = room.RequestRoll(c.ID, data.Seat)
		}
	}
}

func (c *Connection) handleJoin(data JoinData) {
	var minBet int64
	if data.MinBet != nil {
		minBet = *data.MinBet
	}

	room, err := c.registry.Join(data.TableID, minBet, c.ID)
	if err != nil {
		c.logger.Warn("Join failed", "table", data.TableID, "error", err)
		c.sendError("join_failed", err.Error())
		return
	}
	c.addTable(room.ID())
	c.logger.Info("Joined table", "table", room.ID())
}

// room looks up a table the client referenced. Actions on tables that do not
// exist are dropped like any other invalid action.
func (c *Connection) room(tableID string) *Room {
	room, ok := c.registry.Get(tableID)
	if !ok {
		c.logger.Debug("Action for unknown table", "table", tableID)
		return nil
	}
	return room
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError("invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}
