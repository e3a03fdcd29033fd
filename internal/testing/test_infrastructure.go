// Package testing runs whole-system scenarios: a real server on a loopback
// listener with bots and watchers connected over websockets.
package testing

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/dicetable/internal/bot"
	"github.com/lox/dicetable/internal/client"
	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/randutil"
	"github.com/lox/dicetable/internal/server"
	"github.com/lox/dicetable/internal/tui"
)

// FastConfig compresses a round into well under a second of wall time.
const FastConfig = `
timing {
  tick_interval     = "100ms"
  betting_window    = "3s"
  roll_window       = "3s"
  roll_delay        = "50ms"
  banner_duration   = "200ms"
  heartbeat_timeout = "35s"
}

table "main" {
  min_bet = 10
  seats   = ["seat1", "seat2", "seat3", "seat4"]
}
`

// TestServer wraps a running server instance
type TestServer struct {
	Server *server.Server
	URL    string

	httpServer *httptest.Server
	cancel     context.CancelFunc
	done       chan struct{}
}

func (s *TestServer) Stop() {
	s.cancel()
	<-s.done
	s.Server.Stop()
	s.httpServer.Close()
}

// Room returns a live table, failing the test if it does not exist.
func (s *TestServer) Room(t *testing.T, id string) *server.Room {
	t.Helper()
	room, ok := s.Server.Registry().Get(id)
	require.True(t, ok, "table %s not found", id)
	return room
}

// Rounds returns how many rounds table id has settled.
func (s *TestServer) Rounds(id string) int {
	for _, summary := range s.Server.Registry().Summaries() {
		if summary.ID == id {
			return summary.Rounds
		}
	}
	return 0
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// startTestServer runs a server with the given HCL config and seeded dice.
func startTestServer(t *testing.T, src string, seed int64) *TestServer {
	t.Helper()

	cfg, err := server.ParseServerConfig([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	srv, err := server.NewServer(cfg, quartz.NewReal(), func(id string) game.DiceSource {
		return randutil.ForTable(seed, id)
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ts := &TestServer{
		Server:     srv,
		httpServer: httptest.NewServer(srv.Handler()),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	ts.URL = ts.httpServer.URL

	go func() {
		defer close(ts.done)
		_ = srv.Registry().Run(ctx)
	}()

	t.Cleanup(ts.Stop)
	return ts
}

// TestClient is a connected client that remembers the latest state it saw.
type TestClient struct {
	*client.Client

	mu     sync.Mutex
	last   *game.Snapshot
	states int
	denied []string
}

func connectTestClient(t *testing.T, ts *TestServer, tableID string) *TestClient {
	t.Helper()

	tc := &TestClient{Client: client.NewClient(ts.URL, tableID, quartz.NewReal(), testLogger())}
	tc.OnState(tc.record)
	tc.OnSeatDenied(func(d server.SeatDeniedData) {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		tc.denied = append(tc.denied, d.Seat)
	})

	require.NoError(t, tc.Connect(context.Background()))
	t.Cleanup(func() { _ = tc.Close() })
	return tc
}

func (c *TestClient) record(snap game.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &snap
	c.states++
}

// Last returns the most recent snapshot received.
func (c *TestClient) Last() (game.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return game.Snapshot{}, false
	}
	return *c.last, true
}

// States returns how many table:state messages arrived.
func (c *TestClient) States() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states
}

// Denied returns the seats the server refused.
func (c *TestClient) Denied() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.denied...)
}

// startBot connects a bot that always wagers and prefers seat.
func startBot(t *testing.T, ts *TestServer, tableID, seat string, seed int64) *bot.Bot {
	t.Helper()

	logger := testLogger()
	c := client.NewClient(ts.URL, tableID, quartz.NewReal(), logger)
	b := bot.New(c, bot.NewRandBot(randutil.New(seed), 3, 1.0, logger), seat, logger)
	c.OnState(b.HandleState)
	c.OnSeatDenied(b.HandleSeatDenied)

	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Join(0))
	return b
}

// TestWatcher drives a WatchModel from a live connection.
type TestWatcher struct {
	mu    sync.Mutex
	model *tui.WatchModel
}

// attachWatcher must be called before the client joins.
func attachWatcher(c *TestClient, tableID string) *TestWatcher {
	w := &TestWatcher{model: tui.NewWatchModel(tableID, nil, testLogger())}
	w.update(tea.WindowSizeMsg{Width: 100, Height: 40})
	c.OnState(func(snap game.Snapshot) {
		w.update(tui.StateMsg(snap))
	})
	return w
}

func (w *TestWatcher) update(msg tea.Msg) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.model.Update(msg)
}

// View renders the current screen.
func (w *TestWatcher) View() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.View()
}

// tableValue is every chip on the table: balances, open stakes and the
// settlement residual.
func tableValue(snap game.Snapshot) int64 {
	total := snap.Residual
	for _, s := range snap.Seats {
		total += s.Balance + s.WithBet + s.AgainstBet
	}
	return total
}
