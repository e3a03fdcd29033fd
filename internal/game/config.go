package game

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config holds the per-table rules. Timing values are whole seconds because
// countdowns advance once per global tick.
type Config struct {
	Seats              []string
	MinBet             int64
	StartingMultiplier int64
	BettingSeconds     int
	RollWindowSeconds  int
	HeartbeatTimeout   time.Duration
	ActivityLimit      int
}

// DefaultConfig returns a seven seat table with the standard timings.
func DefaultConfig() Config {
	return Config{
		Seats:              SeatLabels(7),
		MinBet:             5,
		StartingMultiplier: 200,
		BettingSeconds:     15,
		RollWindowSeconds:  5,
		HeartbeatTimeout:   35 * time.Second,
		ActivityLimit:      12,
	}
}

// SeatLabels returns n labels in ring order: seat1, seat2, ...
func SeatLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("seat%d", i+1)
	}
	return labels
}

// StartingBalance is the balance every seat is seeded with.
func (c Config) StartingBalance() int64 {
	return c.MinBet * c.StartingMultiplier
}

// Validate checks the config for values the state machine cannot run with.
func (c Config) Validate() error {
	if len(c.Seats) < 2 {
		return errors.New("table needs at least two seats")
	}
	seen := make(map[string]bool, len(c.Seats))
	for _, s := range c.Seats {
		if s == "" {
			return errors.New("seat labels must not be empty")
		}
		if seen[s] {
			return fmt.Errorf("duplicate seat label %q", s)
		}
		seen[s] = true
	}
	if c.MinBet <= 0 {
		return fmt.Errorf("min bet must be positive, got %d", c.MinBet)
	}
	if c.StartingMultiplier <= 0 {
		return fmt.Errorf("starting multiplier must be positive, got %d", c.StartingMultiplier)
	}
	// Settlement pays up to twice a winning stake, and a stake can hold the
	// whole table's chips.
	if c.MinBet > math.MaxInt64/c.StartingMultiplier/int64(2*len(c.Seats)) {
		return fmt.Errorf("min bet %d too large for %d seats at multiplier %d", c.MinBet, len(c.Seats), c.StartingMultiplier)
	}
	if c.BettingSeconds <= 0 || c.RollWindowSeconds <= 0 {
		return errors.New("betting and roll windows must be at least one second")
	}
	if c.HeartbeatTimeout <= 0 {
		return errors.New("heartbeat timeout must be positive")
	}
	if c.ActivityLimit <= 0 {
		return errors.New("activity limit must be positive")
	}
	return nil
}
