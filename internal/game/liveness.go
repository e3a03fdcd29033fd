package game

import (
	"maps"
	"slices"
	"time"
)

// Eviction records a connection dropped for missing heartbeats.
type Eviction struct {
	Conn       string
	Seat       string
	WasShooter bool
}

// Heartbeat refreshes conn's liveness timestamp.
func (t *Table) Heartbeat(conn string, now time.Time) {
	t.lastSeen[conn] = now
}

// LastSeen returns conn's last heartbeat.
func (t *Table) LastSeen(conn string) (time.Time, bool) {
	ts, ok := t.lastSeen[conn]
	return ts, ok
}

// EvictStale drops every connection whose last heartbeat is older than the
// heartbeat timeout, releasing its seat. Losing the shooter rotates the dice.
func (t *Table) EvictStale(now time.Time) []Eviction {
	var evicted []Eviction
	for _, conn := range slices.Sorted(maps.Keys(t.lastSeen)) {
		if now.Sub(t.lastSeen[conn]) < t.cfg.HeartbeatTimeout {
			continue
		}
		delete(t.lastSeen, conn)

		seat, seated := t.seatOf[conn]
		if !seated {
			t.logger.Debug("Dropped idle watcher", "conn", conn)
			continue
		}
		delete(t.seatOf, conn)
		delete(t.owners, seat)
		evicted = append(evicted, Eviction{Conn: conn, Seat: seat, WasShooter: seat == t.roles.Shooter})
		t.activity.Add("%s timed out", seat)
		t.logger.Info("Evicted stale seat", "seat", seat, "conn", conn)
	}

	if len(evicted) > 0 {
		t.reconcileRoles()
	}
	return evicted
}
