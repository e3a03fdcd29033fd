package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/dicetable/internal/game"
)

// StateMsg carries a table:state snapshot into the program.
type StateMsg game.Snapshot

// SeatDeniedMsg reports a refused seat claim.
type SeatDeniedMsg struct {
	Seat string
}

// ServerErrorMsg reports an error message from the server.
type ServerErrorMsg struct {
	Code    string
	Message string
}

// DisconnectedMsg reports that the connection closed.
type DisconnectedMsg struct{}

// WatchModel is a live view of one table. With Actions set it also accepts
// typed commands to sit, bet and roll.
type WatchModel struct {
	tableID string
	actions Actions
	logger  *log.Logger

	snap   *game.Snapshot
	seat   string
	status string

	activity viewport.Model
	input    textinput.Model

	width        int
	height       int
	quitting     bool
	disconnected bool
}

// NewWatchModel creates the model. actions may be nil for a read-only view.
func NewWatchModel(tableID string, actions Actions, logger *log.Logger) *WatchModel {
	vp := viewport.New(40, 8)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "sit seat1 | bet 10 with | roll | leave | quit"
	ti.CharLimit = 64
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "
	if actions != nil {
		ti.Focus()
	}

	return &WatchModel{
		tableID:  tableID,
		actions:  actions,
		logger:   logger.WithPrefix("tui"),
		activity: vp,
		input:    ti,
		status:   "Waiting for table state...",
	}
}

// Init initializes the model
func (m *WatchModel) Init() tea.Cmd {
	if m.actions != nil {
		return textinput.Blink
	}
	return nil
}

// Snapshot returns the latest state, if any.
func (m *WatchModel) Snapshot() (game.Snapshot, bool) {
	if m.snap == nil {
		return game.Snapshot{}, false
	}
	return *m.snap, true
}

// Seat returns the seat this viewer believes it holds.
func (m *WatchModel) Seat() string { return m.seat }

// Status returns the status line.
func (m *WatchModel) Status() string { return m.status }

// Update handles messages in the TUI
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case StateMsg:
		snap := game.Snapshot(msg)
		m.snap = &snap
		if m.seat != "" {
			if v, ok := snap.Seat(m.seat); !ok || !v.Taken {
				m.status = fmt.Sprintf("Lost %s", m.seat)
				m.seat = ""
			}
		}
		m.activity.SetContent(renderActivity(snap.Activity))
		m.activity.GotoTop()

	case SeatDeniedMsg:
		m.status = fmt.Sprintf("%s is taken", msg.Seat)
		if m.seat == msg.Seat {
			m.seat = ""
		}

	case ServerErrorMsg:
		m.status = fmt.Sprintf("Server error %s: %s", msg.Code, msg.Message)

	case DisconnectedMsg:
		m.disconnected = true
		m.status = "Disconnected"

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.activity.Width = max(msg.Width-6, 10)
		m.activity.Height = max(msg.Height-22, 3)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.actions == nil {
				m.quitting = true
				return m, tea.Quit
			}
		case "enter":
			if m.actions != nil {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if cmd := m.runCommand(line); cmd != nil {
					return m, cmd
				}
			}
		case "pgup":
			m.activity.HalfPageUp()
		case "pgdown":
			m.activity.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	if m.actions != nil {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.activity, cmd = m.activity.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *WatchModel) runCommand(line string) tea.Cmd {
	c, err := ParseCommand(line)
	if errors.Is(err, errEmptyCommand) {
		return nil
	}
	if err != nil {
		m.status = err.Error()
		return nil
	}

	switch c.Kind {
	case CommandQuit:
		m.quitting = true
		return tea.Quit
	case CommandSit:
		m.seat = c.Seat
		err = m.actions.ClaimSeat(c.Seat)
		m.status = "Claiming " + c.Seat
	case CommandLeave:
		err = m.actions.ReleaseSeat()
		m.status = "Released " + m.seat
		m.seat = ""
	case CommandBet:
		if m.seat == "" {
			m.status = "Sit down first"
			return nil
		}
		err = m.actions.PlaceBet(m.seat, c.Amount, c.Side)
		m.status = fmt.Sprintf("Bet %d %s", c.Amount, c.Side)
	case CommandRoll:
		if m.seat == "" {
			m.status = "Sit down first"
			return nil
		}
		err = m.actions.RequestRoll(m.seat)
		m.status = "Rolling"
	}

	if err != nil {
		m.logger.Warn("Command failed", "command", c.Kind, "error", err)
		m.status = err.Error()
	}
	return nil
}

// View renders the TUI
func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	header := HeaderStyle.Render(fmt.Sprintf("dicetable · %s", m.tableID))
	if m.disconnected {
		header += " " + ErrorStyle.Render("disconnected")
	}

	if m.snap == nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", InfoStyle.Render(m.status))
	}

	seats := panel("Seats", renderSeats(*m.snap, m.seat), 0)
	status := panel("Table", renderStatus(*m.snap), 0)
	top := lipgloss.JoinHorizontal(lipgloss.Top, seats, status)
	activity := panel("Activity", m.activity.View(), max(m.width-2, 0))

	parts := []string{header, top, activity, InfoStyle.Render(m.status)}
	if m.actions != nil {
		parts = append(parts, m.input.View())
		parts = append(parts, InfoStyle.Render("Enter to submit • PgUp/PgDn scroll activity • Ctrl+C to quit"))
	} else {
		parts = append(parts, InfoStyle.Render("PgUp/PgDn scroll activity • q to quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
