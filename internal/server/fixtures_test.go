package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/dicetable/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// scriptedDice replays faces 1..6 in order and fails loudly when exhausted.
type scriptedDice struct {
	mu    sync.Mutex
	faces []int
}

func dice(faces ...int) *scriptedDice {
	return &scriptedDice{faces: faces}
}

func (d *scriptedDice) IntN(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.faces) == 0 {
		panic("scripted dice exhausted")
	}
	f := d.faces[0]
	d.faces = d.faces[1:]
	return f - 1
}

// recordingSender captures every message by connection id.
type recordingSender struct {
	mu   sync.Mutex
	msgs map[string][]*Message
	down map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		msgs: make(map[string][]*Message),
		down: make(map[string]bool),
	}
}

func (s *recordingSender) SendTo(conn string, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down[conn] {
		return fmt.Errorf("connection %s down", conn)
	}
	s.msgs[conn] = append(s.msgs[conn], msg)
	return nil
}

func (s *recordingSender) disconnect(conn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down[conn] = true
}

func (s *recordingSender) count(conn string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs[conn])
}

func (s *recordingSender) last(t *testing.T, conn string) *Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.msgs[conn]
	require.NotEmpty(t, msgs, "no messages for %s", conn)
	return msgs[len(msgs)-1]
}

func (s *recordingSender) lastState(t *testing.T, conn string) game.Snapshot {
	t.Helper()
	msg := s.last(t, conn)
	require.Equal(t, MessageTypeTableState, msg.Type)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap
}

func testServerConfig(t *testing.T, src string) *ServerConfig {
	t.Helper()
	cfg, err := ParseServerConfig([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

const fastTiming = `
timing {
  betting_window    = "2s"
  roll_window       = "2s"
  roll_delay        = "450ms"
  banner_duration   = "2500ms"
  heartbeat_timeout = "35s"
  idle_table_ttl    = "1m"
}
`

type harness struct {
	clock    *quartz.Mock
	sender   *recordingSender
	registry *Registry
	stats    *StatsMonitor
	dice     map[string]*scriptedDice
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	h := &harness{
		clock:  quartz.NewMock(t),
		sender: newRecordingSender(),
		stats:  NewStatsMonitor(),
		dice:   make(map[string]*scriptedDice),
	}
	factory := func(id string) game.DiceSource {
		if d, ok := h.dice[id]; ok {
			return d
		}
		return dice()
	}
	reg, err := NewRegistry(testServerConfig(t, src), h.clock, NewBroadcaster(h.sender, testLogger()), factory, h.stats, testLogger())
	require.NoError(t, err)
	h.registry = reg
	return h
}

func (h *harness) room(t *testing.T, id string, faces ...int) *Room {
	t.Helper()
	h.dice[id] = dice(faces...)
	room, err := h.registry.GetOrCreate(id, 0)
	require.NoError(t, err)
	return room
}

func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.clock.Advance(d).MustWait(ctx)
}

// tickUntilWindow ticks the room until its roll window opens.
func tickUntilWindow(t *testing.T, room *Room) {
	t.Helper()
	for range 10 {
		if room.Snapshot().Phase == game.PhaseRollWindow {
			return
		}
		require.NoError(t, room.Tick())
	}
	t.Fatalf("roll window never opened")
}
