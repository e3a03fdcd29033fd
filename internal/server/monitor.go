package server

import "github.com/lox/dicetable/internal/game"

// RollMonitor receives every completed roll. Calls happen under the table's
// lock, so implementations must be quick and must not call back into the
// registry.
type RollMonitor interface {
	OnRoll(tableID string, res game.Resolution)
}

// NullRollMonitor is a no-op implementation.
type NullRollMonitor struct{}

func (NullRollMonitor) OnRoll(string, game.Resolution) {}

// MultiRollMonitor fan-outs rolls to multiple monitors.
type MultiRollMonitor struct {
	monitors []RollMonitor
}

// NewMultiRollMonitor builds a composite monitor, automatically pruning nil
// entries and returning a NullRollMonitor when no monitors are provided.
func NewMultiRollMonitor(monitors ...RollMonitor) RollMonitor {
	filtered := make([]RollMonitor, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor != nil {
			filtered = append(filtered, monitor)
		}
	}

	switch len(filtered) {
	case 0:
		return NullRollMonitor{}
	case 1:
		return filtered[0]
	default:
		return MultiRollMonitor{monitors: filtered}
	}
}

func (m MultiRollMonitor) OnRoll(tableID string, res game.Resolution) {
	for _, monitor := range m.monitors {
		monitor.OnRoll(tableID, res)
	}
}
