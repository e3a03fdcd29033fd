package server

import (
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/dicetable/internal/game"
)

// Room is the serialization point for one table. Every inbound action, tick
// and delayed callback takes the room lock, mutates the table and broadcasts
// the resulting snapshot before releasing it.
type Room struct {
	id      string
	table   *game.Table
	clock   quartz.Clock
	timing  Timing
	out     *Broadcaster
	monitor RollMonitor
	logger  *log.Logger

	mu          sync.Mutex
	subscribers map[string]struct{}
	idleSince   time.Time
	closed      bool
}

func newRoom(id string, cfg game.Config, timing Timing, dice game.DiceSource, clock quartz.Clock, out *Broadcaster, monitor RollMonitor, logger *log.Logger) (*Room, error) {
	logger = logger.WithPrefix("room").With("table", id)
	table, err := game.NewTable(id, cfg, dice, logger)
	if err != nil {
		return nil, err
	}
	return &Room{
		id:          id,
		table:       table,
		clock:       clock,
		timing:      timing,
		out:         out,
		monitor:     monitor,
		logger:      logger,
		subscribers: make(map[string]struct{}),
		idleSince:   clock.Now(),
	}, nil
}

// ID returns the table id.
func (r *Room) ID() string { return r.id }

// Join subscribes conn and sends it the current snapshot. It fails with
// ErrTableClosed once the registry has swept the room.
func (r *Room) Join(conn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrTableClosed
	}
	r.subscribers[conn] = struct{}{}
	r.table.Join(conn, r.clock.Now())
	r.touch()
	r.logger.Debug("Subscriber joined", "conn", conn, "subscribers", len(r.subscribers))
	r.out.Unicast(conn, r.table.Snapshot())
	return nil
}

// Leave drops conn's subscription. A seat it holds stays claimed until the
// heartbeat timeout evicts it.
func (r *Room) Leave(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[conn]; !ok {
		return
	}
	delete(r.subscribers, conn)
	r.touch()
	r.logger.Debug("Subscriber left", "conn", conn, "subscribers", len(r.subscribers))
}

// Heartbeat refreshes conn's liveness. Connections that neither subscribe
// nor hold a seat are ignored.
func (r *Room) Heartbeat(conn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, subscribed := r.subscribers[conn]
	_, seated := r.table.SeatOf(conn)
	if !subscribed && !seated {
		r.logger.Debug("Ignored heartbeat from unknown connection", "conn", conn)
		return false
	}
	r.table.Heartbeat(conn, r.clock.Now())
	return true
}

// ClaimSeat assigns seat to conn. A refused claim is answered with
// seat:denied to conn alone and changes nothing.
func (r *Room) ClaimSeat(conn, seat string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.table.Claim(conn, seat, r.clock.Now()); err != nil {
		r.logger.Debug("Seat claim denied", "conn", conn, "seat", seat, "error", err)
		r.out.SeatDenied(conn, r.id, seat)
		return err
	}
	r.logger.Info("Seat claimed", "seat", seat, "conn", conn)
	r.touch()
	r.broadcastLocked()
	return nil
}

// ReleaseSeat frees whatever seat conn holds.
func (r *Room) ReleaseSeat(conn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.table.Release(conn)
	if !ok {
		r.logger.Debug("Release ignored, no seat held", "conn", conn)
		return false
	}
	r.logger.Info("Seat released", "seat", seat, "conn", conn)
	r.touch()
	r.broadcastLocked()
	return true
}

// PlaceBet validates and applies a wager. Rejections are silent to clients.
func (r *Room) PlaceBet(conn, seat string, amount float64, side string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chips, err := game.ParseAmount(amount)
	if err != nil {
		return r.reject("bet", conn, seat, err)
	}
	s, err := game.ParseSide(side)
	if err != nil {
		return r.reject("bet", conn, seat, err)
	}
	if err := r.table.PlaceBet(conn, seat, chips, s); err != nil {
		return r.reject("bet", conn, seat, err)
	}
	r.broadcastLocked()
	return nil
}

// RequestRoll throws the dice for the seated shooter. The result lands after
// the roll delay.
func (r *Room) RequestRoll(conn, seat string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.table.RequestRoll(conn, seat)
	if err != nil {
		return r.reject("roll", conn, seat, err)
	}
	r.scheduleRoll(*pending)
	r.broadcastLocked()
	return nil
}

// Tick advances the table by one second and broadcasts. A panic inside the
// table is recovered and returned so other tables keep ticking.
func (r *Room) Tick() (err error) {
	defer r.recoverPanic("tick", &err)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	res := r.table.Tick(r.clock.Now())
	if res.Roll != nil {
		r.logger.Info("Roll window expired, auto-rolling", "shooter", res.Roll.Shooter)
		r.scheduleRoll(*res.Roll)
	}
	if res.Healed {
		r.logger.Info("Table healed into betting", "shooter", r.table.Roles().Shooter)
	}
	r.touch()
	r.broadcastLocked()
	return nil
}

// Snapshot returns the current sanitized state.
func (r *Room) Snapshot() game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Snapshot()
}

// Subscribers returns subscribed connection ids in sorted order.
func (r *Room) Subscribers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscriberList()
}

// Summary describes the room for the table listing.
func (r *Room) Summary() TableSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := r.table.Config()
	return TableSummary{
		ID:          r.id,
		MinBet:      cfg.MinBet,
		Seats:       len(cfg.Seats),
		Occupied:    len(r.table.Occupied()),
		Subscribers: len(r.subscribers),
		Phase:       r.table.Phase(),
		Rounds:      r.table.Rounds(),
	}
}

// IsIdleFor reports whether the room has had no subscribers and no seated
// players for at least ttl.
func (r *Room) IsIdleFor(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy() || r.idleSince.IsZero() {
		return false
	}
	return now.Sub(r.idleSince) >= ttl
}

// Close stops the room from reacting to ticks and pending callbacks.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Room) scheduleRoll(p game.PendingRoll) {
	r.logger.Debug("Dice thrown", "shooter", p.Shooter, "roll", p.ID)
	r.clock.AfterFunc(r.timing.RollDelay, func() {
		r.completeRoll(p)
	}, "room", "roll")
}

func (r *Room) completeRoll(p game.PendingRoll) {
	defer r.recoverPanic("roll completion", nil)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	res, ok := r.table.CompleteRoll(p)
	if !ok {
		r.logger.Debug("Ignored stale roll completion", "roll", p.ID)
		return
	}

	r.logger.Info("Roll resolved",
		"shooter", p.Shooter,
		"dice", fmt.Sprintf("%d-%d", p.Dice[0], p.Dice[1]),
		"outcome", res.Outcome,
		"point", res.Point,
		"rotated", res.Rotated)
	if s := res.Settlement; s != nil {
		r.logger.Info("Round settled",
			"winner", s.Winner,
			"with", s.TotalWith,
			"against", s.TotalAgainst,
			"matched", s.Matched,
			"residual", s.Residual)
	}
	r.monitor.OnRoll(r.id, res)
	if res.Banner != nil {
		id := res.Banner.ID
		r.clock.AfterFunc(r.timing.BannerDuration, func() {
			r.clearBanner(id)
		}, "room", "banner")
	}
	r.broadcastLocked()
}

func (r *Room) clearBanner(id string) {
	defer r.recoverPanic("banner clear", nil)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || !r.table.ClearBanner(id) {
		return
	}
	r.broadcastLocked()
}

func (r *Room) reject(action, conn, seat string, err error) error {
	r.logger.Debug("Rejected action", "action", action, "conn", conn, "seat", seat, "error", err)
	return err
}

func (r *Room) recoverPanic(where string, errp *error) {
	if v := recover(); v != nil {
		r.logger.Error("Recovered panic", "in", where, "panic", v, "stack", string(debug.Stack()))
		if errp != nil {
			*errp = fmt.Errorf("table %s: panic in %s: %v", r.id, where, v)
		}
	}
}

func (r *Room) broadcastLocked() {
	r.out.State(r.subscriberList(), r.table.Snapshot())
}

func (r *Room) subscriberList() []string {
	return slices.Sorted(maps.Keys(r.subscribers))
}

func (r *Room) busy() bool {
	return len(r.subscribers) > 0 || len(r.table.Occupied()) > 0
}

func (r *Room) touch() {
	switch {
	case r.busy():
		r.idleSince = time.Time{}
	case r.idleSince.IsZero():
		r.idleSince = r.clock.Now()
	}
}
