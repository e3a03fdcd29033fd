package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/dicetable/internal/game"
)

// DiceFactory returns the dice source for a newly created table.
type DiceFactory func(tableID string) game.DiceSource

var (
	// ErrInvalidTableID is returned for an empty table id.
	ErrInvalidTableID = errors.New("table id required")
	// ErrMinBetTooLarge is returned when a join asks for a new table above
	// defaults.max_min_bet.
	ErrMinBetTooLarge = errors.New("requested min bet exceeds server maximum")
	// ErrTableClosed is returned when joining a table removed by the sweeper.
	ErrTableClosed = errors.New("table closed")
)

// joinAttempts bounds how often Join recreates a table swept mid-join.
const joinAttempts = 3

// Registry owns every live table. Tables are created on first join and,
// unless declared in configuration, removed once idle for the configured TTL.
type Registry struct {
	cfg     *ServerConfig
	timing  Timing
	clock   quartz.Clock
	out     *Broadcaster
	dice    DiceFactory
	monitor RollMonitor
	logger  *log.Logger

	tickLimit int

	mu     sync.RWMutex
	rooms  map[string]*Room
	pinned map[string]bool
}

// NewRegistry creates a registry and the tables declared in cfg. monitor may
// be nil.
func NewRegistry(cfg *ServerConfig, clock quartz.Clock, out *Broadcaster, dice DiceFactory, monitor RollMonitor, logger *log.Logger) (*Registry, error) {
	timing, err := cfg.ParseTiming()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		cfg:       cfg,
		timing:    timing,
		clock:     clock,
		out:       out,
		dice:      dice,
		monitor:   NewMultiRollMonitor(monitor),
		logger:    logger.WithPrefix("registry"),
		tickLimit: 16,
		rooms:     make(map[string]*Room),
		pinned:    make(map[string]bool),
	}

	for _, tc := range cfg.Tables {
		if _, err := r.GetOrCreate(tc.ID, 0); err != nil {
			return nil, err
		}
		r.pinned[tc.ID] = true
	}
	return r, nil
}

// SetTickLimit bounds how many tables tick concurrently. Non-positive
// removes the bound. Call before Run.
func (r *Registry) SetTickLimit(n int) {
	if n <= 0 {
		n = -1
	}
	r.tickLimit = n
}

// GetOrCreate returns table id, creating it when absent. minBet only applies
// to a table being created; non-positive means the configured default and
// values above defaults.max_min_bet are refused.
func (r *Registry) GetOrCreate(id string, minBet int64) (*Room, error) {
	if id == "" {
		return nil, ErrInvalidTableID
	}

	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room, nil
	}
	if minBet > r.cfg.Defaults.MaxMinBet && r.cfg.GetTableByID(id) == nil {
		return nil, fmt.Errorf("create table %s: %w", id, ErrMinBetTooLarge)
	}

	room, err := newRoom(id, r.cfg.GameConfig(id, minBet), r.timing, r.dice(id), r.clock, r.out, r.monitor, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", id, err)
	}
	r.rooms[id] = room
	r.logger.Info("Table created", "table", id, "minBet", room.table.Config().MinBet, "tables", len(r.rooms))
	return room, nil
}

// Join subscribes conn to table id, creating the table when absent. A table
// swept between lookup and subscription is recreated.
func (r *Registry) Join(id string, minBet int64, conn string) (*Room, error) {
	for range joinAttempts {
		room, err := r.GetOrCreate(id, minBet)
		if err != nil {
			return nil, err
		}
		err = room.Join(conn)
		if errors.Is(err, ErrTableClosed) {
			r.logger.Debug("Table swept during join, retrying", "table", id, "conn", conn)
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
	return nil, fmt.Errorf("join table %s: %w", id, ErrTableClosed)
}

// Get returns table id if it exists.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Len returns the number of live tables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Summaries lists every table ordered by id.
func (r *Registry) Summaries() []TableSummary {
	rooms := r.snapshotRooms()
	out := make([]TableSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	return out
}

// Unsubscribe removes conn from every table it watches.
func (r *Registry) Unsubscribe(conn string) {
	for _, room := range r.snapshotRooms() {
		room.Leave(conn)
	}
}

// TickAll ticks every table concurrently. Failing tables are logged and
// reported together; they never stop the others from ticking.
func (r *Registry) TickAll(ctx context.Context) error {
	rooms := r.snapshotRooms()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(r.tickLimit)
	for _, room := range rooms {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := room.Tick(); err != nil {
				r.logger.Error("Table tick failed", "table", room.ID(), "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Sweep removes tables idle for longer than the configured TTL and returns
// their ids. Declared tables are never removed.
func (r *Registry) Sweep(now time.Time) []string {
	if r.timing.IdleTableTTL <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for _, id := range slices.Sorted(maps.Keys(r.rooms)) {
		room := r.rooms[id]
		if r.pinned[id] || !room.IsIdleFor(now, r.timing.IdleTableTTL) {
			continue
		}
		room.Close()
		delete(r.rooms, id)
		removed = append(removed, id)
		r.logger.Info("Removed idle table", "table", id)
	}
	return removed
}

// Run ticks all tables on the configured interval until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.timing.TickInterval, "registry", "tick")
	defer ticker.Stop()

	r.logger.Info("Tick loop started", "interval", r.timing.TickInterval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Tick loop stopped")
			return nil
		case <-ticker.C:
			_ = r.TickAll(ctx)
			r.Sweep(r.clock.Now())
		}
	}
}

// Close stops every table.
func (r *Registry) Close() {
	for _, room := range r.snapshotRooms() {
		room.Close()
	}
}

func (r *Registry) snapshotRooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*Room, 0, len(r.rooms))
	for _, id := range slices.Sorted(maps.Keys(r.rooms)) {
		rooms = append(rooms, r.rooms[id])
	}
	return rooms
}
