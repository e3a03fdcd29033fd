package server

import (
	"sort"
	"sync"

	"github.com/lox/dicetable/internal/game"
)

// TableStatistics tracks roll and settlement totals for a single table
type TableStatistics struct {
	mu            sync.RWMutex
	rolls         int
	rounds        int
	outcomes      map[game.Outcome]int
	totals        [13]int
	withWins      int
	againstWins   int
	matched       int64
	staked        int64
	residual      int64
	longestStreak int
	streak        int
}

// NewTableStatistics creates a new TableStatistics instance
func NewTableStatistics() *TableStatistics {
	return &TableStatistics{outcomes: make(map[game.Outcome]int)}
}

// AddRoll incorporates a completed roll.
func (s *TableStatistics) AddRoll(res game.Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rolls++
	s.outcomes[res.Outcome]++
	if total := res.Roll.Total(); total >= 2 && total <= 12 {
		s.totals[total]++
	}

	if res.Rotated {
		s.streak = 0
	} else {
		s.streak++
		s.longestStreak = max(s.longestStreak, s.streak)
	}

	winner, decided := res.Outcome.Winner()
	if !decided {
		return
	}
	s.rounds++
	switch winner {
	case game.SideWith:
		s.withWins++
	case game.SideAgainst:
		s.againstWins++
	}
	if st := res.Settlement; st != nil {
		s.matched += st.Matched
		s.staked += st.TotalWith + st.TotalAgainst
		s.residual += st.Residual
	}
}

// TableStats is the JSON form served on /stats.
type TableStats struct {
	TableID       string               `json:"tableId"`
	Rolls         int                  `json:"rolls"`
	Rounds        int                  `json:"rounds"`
	Outcomes      map[game.Outcome]int `json:"outcomes"`
	Totals        map[int]int          `json:"totals"`
	WithWins      int                  `json:"withWins"`
	AgainstWins   int                  `json:"againstWins"`
	WithWinRate   float64              `json:"withWinRate"`
	Staked        int64                `json:"staked"`
	Matched       int64                `json:"matched"`
	MatchRate     float64              `json:"matchRate"`
	Residual      int64                `json:"residual"`
	LongestStreak int                  `json:"longestStreak"`
}

// Snapshot converts the counters into TableStats.
func (s *TableStatistics) Snapshot(tableID string) TableStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := TableStats{
		TableID:       tableID,
		Rolls:         s.rolls,
		Rounds:        s.rounds,
		Outcomes:      make(map[game.Outcome]int, len(s.outcomes)),
		Totals:        make(map[int]int),
		WithWins:      s.withWins,
		AgainstWins:   s.againstWins,
		Staked:        s.staked,
		Matched:       s.matched,
		Residual:      s.residual,
		LongestStreak: s.longestStreak,
	}
	for o, n := range s.outcomes {
		out.Outcomes[o] = n
	}
	for total, n := range s.totals {
		if n > 0 {
			out.Totals[total] = n
		}
	}
	if s.rounds > 0 {
		out.WithWinRate = float64(s.withWins) / float64(s.rounds) * 100
	}
	if s.staked > 0 {
		// Both sides of a matched amount are at risk.
		out.MatchRate = float64(2*s.matched) / float64(s.staked) * 100
	}
	return out
}

// StatsMonitor keeps TableStatistics for every table it has seen. Entries
// outlive swept tables so totals survive idle periods.
type StatsMonitor struct {
	mu     sync.RWMutex
	tables map[string]*TableStatistics
}

// NewStatsMonitor creates an empty monitor.
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{tables: make(map[string]*TableStatistics)}
}

func (m *StatsMonitor) OnRoll(tableID string, res game.Resolution) {
	m.table(tableID).AddRoll(res)
}

func (m *StatsMonitor) table(id string) *TableStatistics {
	m.mu.RLock()
	s, ok := m.tables[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.tables[id]; ok {
		return s
	}
	s = NewTableStatistics()
	m.tables[id] = s
	return s
}

// TableStats returns statistics for one table.
func (m *StatsMonitor) TableStats(id string) (TableStats, bool) {
	m.mu.RLock()
	s, ok := m.tables[id]
	m.mu.RUnlock()
	if !ok {
		return TableStats{}, false
	}
	return s.Snapshot(id), true
}

// AllStats returns statistics for every table, ordered by table id.
func (m *StatsMonitor) AllStats() []TableStats {
	m.mu.RLock()
	ids := make([]string, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	out := make([]TableStats, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.TableStats(id); ok {
			out = append(out, s)
		}
	}
	return out
}
