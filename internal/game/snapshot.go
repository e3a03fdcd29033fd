package game

// SeatView is the public view of one seat. The owning connection is reduced
// to a Taken flag.
type SeatView struct {
	Label      string `json:"label"`
	Taken      bool   `json:"taken"`
	Balance    int64  `json:"balance"`
	WithBet    int64  `json:"withBet"`
	AgainstBet int64  `json:"againstBet"`
	RoundTotal int64  `json:"roundTotal"`
	LastBet    int64  `json:"lastBet"`
	LastSide   Side   `json:"lastSide,omitempty"`
}

// Snapshot is the client-visible table state broadcast after every change.
type Snapshot struct {
	TableID            string     `json:"tableId"`
	MinBet             int64      `json:"minBet"`
	Seats              []SeatView `json:"seats"`
	Shooter            string     `json:"shooter"`
	Fader              string     `json:"fader"`
	Point              *int       `json:"point"`
	Dice               [2]int     `json:"dice"`
	Phase              Phase      `json:"phase"`
	Rolling            bool       `json:"rolling"`
	RollWindowOpen     bool       `json:"rollWindowOpen"`
	Countdown          int        `json:"countdown"`
	RollCountdown      int        `json:"rollCountdown"`
	WithPot            int64      `json:"withShooterPot"`
	AgainstPot         int64      `json:"againstShooterPot"`
	ShooterStreak      int        `json:"shooterStreak"`
	ShooterPointStreak int        `json:"shooterPointStreak"`
	Activity           []string   `json:"activity"`
	Banner             *Banner    `json:"banner,omitempty"`
	Residual           int64      `json:"residual"`
}

// Snapshot produces the sanitized state. Connection identifiers never leave
// the table.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{
		TableID:            t.ID,
		MinBet:             t.cfg.MinBet,
		Seats:              make([]SeatView, 0, len(t.cfg.Seats)),
		Shooter:            t.roles.Shooter,
		Fader:              t.roles.Fader,
		Dice:               t.lastDice,
		Phase:              t.phase,
		Rolling:            t.rolling,
		RollWindowOpen:     t.phase == PhaseRollWindow && t.rollCountdown > 0,
		Countdown:          t.countdown,
		RollCountdown:      t.rollCountdown,
		WithPot:            t.ledger.WithPot,
		AgainstPot:         t.ledger.AgainstPot,
		ShooterStreak:      t.shooterStreak,
		ShooterPointStreak: t.shooterPointStreak,
		Activity:           t.activity.Entries(),
		Residual:           t.residual,
	}
	if t.point != 0 {
		p := t.point
		s.Point = &p
	}
	if t.banner != nil {
		b := *t.banner
		s.Banner = &b
	}
	for _, label := range t.cfg.Seats {
		r, _ := t.ledger.Record(label)
		_, taken := t.owners[label]
		s.Seats = append(s.Seats, SeatView{
			Label:      label,
			Taken:      taken,
			Balance:    r.Balance,
			WithBet:    r.WithBet,
			AgainstBet: r.AgainstBet,
			RoundTotal: r.RoundTotal,
			LastBet:    r.LastBet,
			LastSide:   r.LastSide,
		})
	}
	return s
}

// Seat returns the view of label, if present.
func (s Snapshot) Seat(label string) (SeatView, bool) {
	for _, v := range s.Seats {
		if v.Label == label {
			return v, true
		}
	}
	return SeatView{}, false
}
