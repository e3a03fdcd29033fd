package game

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DiceSource supplies uniform integers in [0, n). *rand.Rand satisfies it.
type DiceSource interface {
	IntN(n int) int
}

// PendingRoll is a roll whose dice are drawn but not yet applied. The ID ties
// a delayed completion to the roll that scheduled it.
type PendingRoll struct {
	ID      string
	Shooter string
	Dice    [2]int
}

// Total is the sum of both dice.
func (p PendingRoll) Total() int {
	return p.Dice[0] + p.Dice[1]
}

// Resolution describes what a completed roll did to the table.
type Resolution struct {
	Roll       PendingRoll
	Outcome    Outcome
	Point      int
	Settlement *Settlement
	Banner     *Banner
	// Rotated is set when the dice left the thrower, either on this seven-out
	// or because the thrower's seat was vacated while the dice were in the air.
	Rotated bool
}

// TickResult reports the automatic transitions taken by one tick.
type TickResult struct {
	Evicted      []Eviction
	WindowOpened bool
	// Roll is set when the roll window expired with the shooter seated.
	Roll *PendingRoll
	// Healed is set when the window expired without a shooter and the
	// table rotated straight back into betting.
	Healed bool
}

// Table is one table's authoritative state. It is not safe for concurrent
// use; callers serialise access per table.
type Table struct {
	ID string

	cfg    Config
	dice   DiceSource
	logger *log.Logger

	owners   map[string]string // seat -> connection
	seatOf   map[string]string // connection -> seat
	lastSeen map[string]time.Time

	roles    Roles
	point    int
	lastDice [2]int
	phase    Phase
	rolling  bool
	pending  *PendingRoll
	banner   *Banner

	countdown     int
	rollCountdown int

	shooterStreak      int
	shooterPointStreak int

	ledger   *Ledger
	activity *Activity
	residual int64
	rounds   int
}

// NewTable creates a table in the betting phase with every seat seeded at
// MinBet * StartingMultiplier.
func NewTable(id string, cfg Config, dice DiceSource, logger *log.Logger) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg.Seats = slices.Clone(cfg.Seats)

	t := &Table{
		ID:       id,
		cfg:      cfg,
		dice:     dice,
		logger:   logger.With("table", id),
		owners:   make(map[string]string),
		seatOf:   make(map[string]string),
		lastSeen: make(map[string]time.Time),
		ledger:   NewLedger(cfg.Seats, cfg.StartingBalance()),
		activity: NewActivity(cfg.ActivityLimit),
	}
	t.roles = NextRoles(cfg.Seats, t.owners, "")
	t.openBetting()
	return t, nil
}

// Join records a subscriber for liveness tracking.
func (t *Table) Join(conn string, now time.Time) {
	t.lastSeen[conn] = now
}

// Claim gives seat to conn when it is free or already conn's. Claiming a
// different seat gives up the connection's previous one.
func (t *Table) Claim(conn, seat string, now time.Time) error {
	if !slices.Contains(t.cfg.Seats, seat) {
		return ErrUnknownSeat
	}
	if owner, ok := t.owners[seat]; ok {
		if owner != conn {
			return ErrSeatTaken
		}
		t.lastSeen[conn] = now
		return nil
	}

	if prev, ok := t.seatOf[conn]; ok {
		delete(t.owners, prev)
		t.activity.Add("Player moved from %s to %s", prev, seat)
	} else {
		t.activity.Add("%s taken", seat)
	}
	t.owners[seat] = conn
	t.seatOf[conn] = seat
	t.lastSeen[conn] = now
	t.reconcileRoles()
	return nil
}

// Release frees any seat held by conn and stops tracking its heartbeat.
func (t *Table) Release(conn string) (string, bool) {
	delete(t.lastSeen, conn)
	seat, ok := t.seatOf[conn]
	if !ok {
		return "", false
	}
	delete(t.seatOf, conn)
	delete(t.owners, seat)
	t.activity.Add("%s released", seat)
	t.reconcileRoles()
	return seat, true
}

// PlaceBet stakes amount from seat on side. The shooter may not bet against
// itself and the fader may not bet with the shooter; with a single occupant
// both roles sit on one seat and nothing can be wagered.
func (t *Table) PlaceBet(conn, seat string, amount int64, side Side) error {
	owner, ok := t.owners[seat]
	switch {
	case !slices.Contains(t.cfg.Seats, seat):
		return ErrUnknownSeat
	case !ok || owner != conn:
		return ErrNotSeatOwner
	case t.phase != PhaseBetting:
		return ErrWrongPhase
	case amount <= 0:
		return ErrInvalidAmount
	case side != SideWith && side != SideAgainst:
		return ErrInvalidSide
	case t.roles.Shooter == t.roles.Fader:
		return ErrSideNotAllowed
	case seat == t.roles.Shooter && side == SideAgainst:
		return ErrSideNotAllowed
	case seat == t.roles.Fader && side == SideWith:
		return ErrSideNotAllowed
	}

	if err := t.ledger.ApplyBet(seat, amount, side); err != nil {
		return err
	}
	t.activity.Add("%s bet %d %s", seat, amount, side)
	return nil
}

// RequestRoll lets the seated shooter throw while the roll window is open.
// Accepting closes the window, so a repeated request is refused.
func (t *Table) RequestRoll(conn, seat string) (*PendingRoll, error) {
	shooter := t.roles.Shooter
	if seat != shooter || t.owners[shooter] != conn {
		return nil, ErrNotSeatOwner
	}
	if t.rolling {
		return nil, ErrRollNotAllowed
	}
	if t.phase == PhaseBetting {
		return nil, ErrWrongPhase
	}
	if t.phase != PhaseRollWindow || t.rollCountdown <= 0 {
		return nil, ErrRollNotAllowed
	}
	p := t.beginRoll()
	return &p, nil
}

// CompleteRoll applies a pending roll. It reports false when the roll is no
// longer the table's pending roll, which makes late completions harmless.
func (t *Table) CompleteRoll(p PendingRoll) (Resolution, bool) {
	if t.pending == nil || t.pending.ID != p.ID {
		return Resolution{}, false
	}
	t.pending = nil
	t.rolling = false
	t.lastDice = p.Dice

	res := t.resolve(p)
	t.openBetting()
	return res, true
}

// Tick advances countdowns by one second, evicts stale connections and takes
// any automatic transition that falls due.
func (t *Table) Tick(now time.Time) TickResult {
	res := TickResult{Evicted: t.EvictStale(now)}

	switch t.phase {
	case PhaseBetting:
		if t.countdown > 0 {
			t.countdown--
		}
		if t.countdown == 0 {
			t.phase = PhaseRollWindow
			t.rollCountdown = t.cfg.RollWindowSeconds
			res.WindowOpened = true
			t.logger.Debug("Roll window open", "shooter", t.roles.Shooter)
		}
	case PhaseRollWindow:
		if t.rollCountdown > 0 {
			t.rollCountdown--
		}
		if t.rollCountdown == 0 {
			res.Roll, res.Healed = t.expireRollWindow()
		}
	case PhaseRolling:
		// resolution arrives through CompleteRoll
	}
	return res
}

// ClearBanner removes the banner only if it is still the one identified.
func (t *Table) ClearBanner(id string) bool {
	if t.banner == nil || t.banner.ID != id {
		return false
	}
	t.banner = nil
	return true
}

func (t *Table) expireRollWindow() (*PendingRoll, bool) {
	if _, seated := t.owners[t.roles.Shooter]; seated {
		p := t.beginRoll()
		return &p, false
	}
	t.activity.Add("No shooter at %s, dice pass", t.roles.Shooter)
	t.logger.Info("Roll window expired without shooter", "seat", t.roles.Shooter)
	t.rotate()
	t.openBetting()
	return nil, true
}

func (t *Table) beginRoll() PendingRoll {
	p := PendingRoll{
		ID:      uuid.NewString(),
		Shooter: t.roles.Shooter,
		Dice:    [2]int{t.dice.IntN(6) + 1, t.dice.IntN(6) + 1},
	}
	t.pending = &p
	t.rolling = true
	t.phase = PhaseRolling
	t.rollCountdown = 0
	t.activity.Add("%s rolls", p.Shooter)
	return p
}

func (t *Table) resolve(p PendingRoll) Resolution {
	total := p.Total()
	res := Resolution{Roll: p}

	if t.point == 0 {
		switch total {
		case 7, 11:
			res.Outcome = OutcomeNatural
			t.shooterStreak++
		case 2, 3, 12:
			res.Outcome = OutcomeCraps
			t.shooterStreak = 0
		default:
			res.Outcome = OutcomePointSet
			t.point = total
			t.shooterStreak++
		}
	} else {
		switch total {
		case t.point:
			res.Outcome = OutcomePointMade
			t.point = 0
			t.shooterStreak++
			t.shooterPointStreak++
		case 7:
			res.Outcome = OutcomeSevenOut
			t.point = 0
			t.shooterStreak = 0
		default:
			res.Outcome = OutcomeNoDecision
		}
	}

	if winner, ok := res.Outcome.Winner(); ok {
		s := Settle(t.ledger, winner)
		t.residual += s.Residual
		t.rounds++
		res.Settlement = &s
		t.logger.Info("Round settled", "outcome", res.Outcome, "winner", winner, "matched", s.Matched, "residual", s.Residual)
	}

	if b := resultBanner(res.Outcome, p.Dice, total); b != nil {
		t.banner = b
		res.Banner = b
	}
	t.activity.Add("%s rolled %d-%d (%d): %s", p.Shooter, p.Dice[0], p.Dice[1], total, res.Outcome)

	// A thrower who left mid-roll already passed the dice; the replacement
	// keeps them and starts with clean streaks.
	passed := t.roles.Shooter != p.Shooter
	switch {
	case passed:
		t.shooterStreak = 0
		t.shooterPointStreak = 0
		res.Rotated = true
	case res.Outcome == OutcomeSevenOut:
		t.rotate()
		res.Rotated = true
	}
	res.Point = t.point
	return res
}

func resultBanner(o Outcome, dice [2]int, total int) *Banner {
	switch o {
	case OutcomeNatural:
		return newBanner(BannerWin, o, fmt.Sprintf("Natural %d, shooter wins", total), dice)
	case OutcomePointMade:
		return newBanner(BannerWin, o, fmt.Sprintf("Point %d made, shooter wins", total), dice)
	case OutcomeCraps:
		return newBanner(BannerLoss, o, fmt.Sprintf("Craps %d, shooter loses", total), dice)
	case OutcomeSevenOut:
		return newBanner(BannerLoss, o, "Seven out, dice pass", dice)
	case OutcomePointSet:
		return newBanner(BannerPoint, o, fmt.Sprintf("Point is %d", total), dice)
	}
	return nil
}

func (t *Table) openBetting() {
	t.phase = PhaseBetting
	t.countdown = t.cfg.BettingSeconds
	t.rollCountdown = 0
	t.rolling = false
}

// rotate passes the dice and resets both streaks.
func (t *Table) rotate() {
	prev := t.roles
	t.roles = NextRoles(t.cfg.Seats, t.owners, prev.Shooter)
	t.shooterStreak = 0
	t.shooterPointStreak = 0
	if _, seated := t.owners[t.roles.Shooter]; seated && t.roles.Shooter != prev.Shooter {
		t.activity.Add("Dice pass to %s", t.roles.Shooter)
	}
	t.logger.Debug("Rotated", "from", prev.Shooter, "shooter", t.roles.Shooter, "fader", t.roles.Fader)
}

// reconcileRoles restores the role invariants after an occupancy change,
// rotating when the shooter seat was vacated.
func (t *Table) reconcileRoles() {
	roles, ok := RepairRoles(t.cfg.Seats, t.owners, t.roles)
	if !ok {
		t.rotate()
		return
	}
	t.roles = roles
}

// Phase returns the current phase.
func (t *Table) Phase() Phase { return t.phase }

// Rolling reports whether a roll is waiting for resolution.
func (t *Table) Rolling() bool { return t.rolling }

// Point returns the active point, or 0 on the come-out.
func (t *Table) Point() int { return t.point }

// Dice returns the last resolved dice.
func (t *Table) Dice() [2]int { return t.lastDice }

// Roles returns the current shooter and fader.
func (t *Table) Roles() Roles { return t.roles }

// Countdowns returns the betting and roll window seconds remaining.
func (t *Table) Countdowns() (betting, roll int) { return t.countdown, t.rollCountdown }

// Streaks returns the shooter's roll and point streaks.
func (t *Table) Streaks() (rolls, points int) { return t.shooterStreak, t.shooterPointStreak }

// Banner returns the current result banner, if any.
func (t *Table) Banner() *Banner { return t.banner }

// Record returns a copy of seat's ledger record.
func (t *Table) Record(seat string) (SeatRecord, bool) { return t.ledger.Record(seat) }

// Pots returns the running with and against pots.
func (t *Table) Pots() (with, against int64) { return t.ledger.WithPot, t.ledger.AgainstPot }

// Owner returns the connection holding seat.
func (t *Table) Owner(seat string) (string, bool) {
	conn, ok := t.owners[seat]
	return conn, ok
}

// SeatOf returns the seat held by conn.
func (t *Table) SeatOf(conn string) (string, bool) {
	seat, ok := t.seatOf[conn]
	return seat, ok
}

// Occupied returns occupied seats in ring order.
func (t *Table) Occupied() []string { return occupiedRing(t.cfg.Seats, t.owners) }

// Tracked returns the connections with a live heartbeat entry, sorted.
func (t *Table) Tracked() []string { return slices.Sorted(maps.Keys(t.lastSeen)) }

// Value is every chip the table accounts for: balances, open stakes and the
// rounding residual.
func (t *Table) Value() int64 { return t.ledger.Value() + t.residual }

// Residual returns the accumulated settlement rounding remainder.
func (t *Table) Residual() int64 { return t.residual }

// Rounds returns how many rounds have settled.
func (t *Table) Rounds() int { return t.rounds }

// Config returns the table's rules.
func (t *Table) Config() Config { return t.cfg }
