package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/server" // Reuse message types
)

// ErrNotConnected is returned when sending before Connect or after Close.
var ErrNotConnected = errors.New("not connected")

// Client is a WebSocket client bound to one table.
type Client struct {
	serverURL string
	tableID   string
	clock     quartz.Clock
	conn      *websocket.Conn
	send      chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once
	done      chan struct{}

	onState  []func(game.Snapshot)
	onDenied []func(server.SeatDeniedData)
	onError  []func(server.ErrorData)
}

// NewClient creates a client for tableID on the server at serverURL.
func NewClient(serverURL, tableID string, clock quartz.Clock, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		tableID:   tableID,
		clock:     clock,
		send:      make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client").With("table", tableID),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// OnState registers a handler for table:state. Handlers run in message
// order on the client's read goroutine and must not block.
func (c *Client) OnState(fn func(game.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// OnSeatDenied registers a handler for seat:denied.
func (c *Client) OnSeatDenied(fn func(server.SeatDeniedData)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDenied = append(c.onDenied, fn)
}

// OnError registers a handler for error messages.
func (c *Client) OnError(fn func(server.ErrorData)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// WebSocketURL turns a server address into its /ws endpoint. Bare host:port
// values are accepted.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("ws://" + serverURL)
		if err != nil {
			return "", fmt.Errorf("invalid server URL: %w", err)
		}
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Close closes the WebSocket connection
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connected = false
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the read loop has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// TableID returns the table this client talks to.
func (c *Client) TableID() string {
	return c.tableID
}

// SendMessage queues a message for the server
func (c *Client) SendMessage(msg *server.Message) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) sendTyped(typ server.MessageType, data any) error {
	msg, err := server.NewMessage(typ, data)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// Join subscribes to the table. minBet only matters if the table is new;
// zero leaves it to the server.
func (c *Client) Join(minBet int64) error {
	data := server.JoinData{TableID: c.tableID}
	if minBet > 0 {
		data.MinBet = &minBet
	}
	return c.sendTyped(server.MessageTypeJoin, data)
}

// Heartbeat refreshes this connection's liveness.
func (c *Client) Heartbeat() error {
	return c.sendTyped(server.MessageTypeHeartbeat, server.TableRef{TableID: c.tableID})
}

// ClaimSeat asks for seat.
func (c *Client) ClaimSeat(seat string) error {
	return c.sendTyped(server.MessageTypeSeatClaim, server.SeatData{TableID: c.tableID, Seat: seat})
}

// ReleaseSeat gives up any held seat.
func (c *Client) ReleaseSeat() error {
	return c.sendTyped(server.MessageTypeSeatRelease, server.TableRef{TableID: c.tableID})
}

// PlaceBet wagers amount from seat on side.
func (c *Client) PlaceBet(seat string, amount int64, side game.Side) error {
	return c.sendTyped(server.MessageTypeBetPlace, server.BetData{
		TableID: c.tableID,
		Seat:    seat,
		Amount:  float64(amount),
		Side:    side.String(),
	})
}

// RequestRoll throws the dice from seat.
func (c *Client) RequestRoll(seat string) error {
	return c.sendTyped(server.MessageTypeRollRequest, server.SeatData{TableID: c.tableID, Seat: seat})
}

// RunHeartbeat sends a heartbeat every interval until ctx is done or the
// connection drops.
func (c *Client) RunHeartbeat(ctx context.Context, interval time.Duration) error {
	ticker := c.clock.NewTicker(interval, "client", "heartbeat")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-ticker.C:
			if err := c.Heartbeat(); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}
		}
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		close(c.done)
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)
		c.dispatch(&msg)
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	onState, onDenied, onError := c.onState, c.onDenied, c.onError
	c.mu.RUnlock()

	switch msg.Type {
	case server.MessageTypeTableState:
		var snap game.Snapshot
		if !c.decode(msg, &snap) {
			return
		}
		for _, fn := range onState {
			fn(snap)
		}
	case server.MessageTypeSeatDenied:
		var data server.SeatDeniedData
		if !c.decode(msg, &data) {
			return
		}
		for _, fn := range onDenied {
			fn(data)
		}
	case server.MessageTypeError:
		var data server.ErrorData
		if !c.decode(msg, &data) {
			return
		}
		c.logger.Warn("Server error", "code", data.Code, "message", data.Message)
		for _, fn := range onError {
			fn(data)
		}
	default:
		c.logger.Debug("No handler for message type", "type", msg.Type)
	}
}

func (c *Client) decode(msg *server.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.logger.Error("Failed to decode message", "type", msg.Type, "error", err)
		return false
	}
	return true
}
