package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/dicetable/internal/game"
)

var diceFaces = [...]string{"?", "⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}

func diceFace(n int) string {
	if n < 1 || n > 6 {
		return diceFaces[0]
	}
	return diceFaces[n]
}

// renderSeats lists every seat with its role marker, balance and stake.
// mine is the seat this viewer holds, if any.
func renderSeats(snap game.Snapshot, mine string) string {
	var b strings.Builder
	for _, s := range snap.Seats {
		role := "  "
		switch {
		case s.Label == snap.Shooter && s.Label == snap.Fader:
			role = ShooterStyle.Render("SF")
		case s.Label == snap.Shooter:
			role = ShooterStyle.Render("S ")
		case s.Label == snap.Fader:
			role = FaderStyle.Render("F ")
		}

		label := s.Label
		if s.Label == mine {
			label += "*"
		}

		if !s.Taken {
			fmt.Fprintf(&b, "%s %s\n", role, EmptySeatStyle.Render(fmt.Sprintf("%-8s empty  %6d", label, s.Balance)))
			continue
		}

		line := fmt.Sprintf("%-8s taken  %6d", label, s.Balance)
		if stake := stakeText(s); stake != "" {
			line += "  " + stake
		}
		fmt.Fprintf(&b, "%s %s\n", role, SeatStyle.Render(line))
	}
	return strings.TrimRight(b.String(), "\n")
}

func stakeText(s game.SeatView) string {
	var parts []string
	if s.WithBet > 0 {
		parts = append(parts, fmt.Sprintf("with %d", s.WithBet))
	}
	if s.AgainstBet > 0 {
		parts = append(parts, fmt.Sprintf("against %d", s.AgainstBet))
	}
	return strings.Join(parts, ", ")
}

// renderStatus shows phase, timers, dice and pots.
func renderStatus(snap game.Snapshot) string {
	var b strings.Builder

	phase := string(snap.Phase)
	switch {
	case snap.Rolling:
		phase = "ROLLING..."
	case snap.Phase == game.PhaseBetting:
		phase = fmt.Sprintf("%s %ds", phase, snap.Countdown)
	case snap.RollWindowOpen:
		phase = fmt.Sprintf("%s %ds", phase, snap.RollCountdown)
	}
	b.WriteString(PhaseStyle.Render(phase))
	b.WriteString("\n\n")

	point := "off"
	if snap.Point != nil {
		point = fmt.Sprintf("%d", *snap.Point)
	}
	fmt.Fprintf(&b, "Point:   %s\n", point)
	fmt.Fprintf(&b, "Dice:    %s\n", DiceStyle.Render(fmt.Sprintf("%s %s  (%d-%d)",
		diceFace(snap.Dice[0]), diceFace(snap.Dice[1]), snap.Dice[0], snap.Dice[1])))
	fmt.Fprintf(&b, "Shooter: %s  Fader: %s\n", ShooterStyle.Render(snap.Shooter), FaderStyle.Render(snap.Fader))
	fmt.Fprintf(&b, "With:    %d\n", snap.WithPot)
	fmt.Fprintf(&b, "Against: %d\n", snap.AgainstPot)
	fmt.Fprintf(&b, "Streak:  %d rolls, %d points\n", snap.ShooterStreak, snap.ShooterPointStreak)
	fmt.Fprintf(&b, "Min bet: %d", snap.MinBet)
	if snap.Residual > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("  residual %d", snap.Residual)))
	}

	if snap.Banner != nil {
		b.WriteString("\n")
		b.WriteString(bannerStyle(string(snap.Banner.Kind)).Render(snap.Banner.Text))
	}
	return b.String()
}

func renderActivity(entries []string) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = ActivityStyle.Render(e)
	}
	return strings.Join(lines, "\n")
}

func panel(title, body string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(InfoStyle.Render(title) + "\n" + body)
}
