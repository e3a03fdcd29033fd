package game

import "fmt"

// Activity is a bounded newest-first log of table events.
type Activity struct {
	entries []string
	limit   int
}

// NewActivity creates an empty log holding at most limit entries.
func NewActivity(limit int) *Activity {
	return &Activity{limit: limit}
}

// Add prepends an entry, dropping the oldest once full.
func (a *Activity) Add(format string, args ...any) {
	entry := fmt.Sprintf(format, args...)
	a.entries = append([]string{entry}, a.entries...)
	if len(a.entries) > a.limit {
		a.entries = a.entries[:a.limit]
	}
}

// Entries returns a copy, newest first.
func (a *Activity) Entries() []string {
	return append([]string(nil), a.entries...)
}
