package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/lox/dicetable/cmd/dicetable/shared"
	"github.com/lox/dicetable/internal/client"
	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/server"
	"github.com/lox/dicetable/internal/tui"
)

type WatchCmd struct {
	Config  string `kong:"default='client.hcl',help='Path to client HCL config'"`
	Server  string `kong:"help='Server URL, overrides config'"`
	Table   string `kong:"arg,optional,help='Table to watch, overrides config'"`
	MinBet  int64  `kong:"help='Minimum bet requested when creating the table'"`
	Play    bool   `kong:"help='Accept sit/bet/roll commands'"`
	LogFile string `kong:"help='Write logs to this file instead of discarding them'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *WatchCmd) Run() error {
	var w io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	logger, err := shared.SetupLogger(w, c.Debug, "text")
	if err != nil {
		return err
	}

	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Table != "" {
		cfg.Player.Table = c.Table
	}
	if c.MinBet > 0 {
		cfg.Player.MinBet = c.MinBet
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := shared.ParseLevel(logger, cfg.UI.LogLevel, c.Debug); err != nil {
		return err
	}

	lipgloss.SetColorProfile(termenv.EnvColorProfile())
	switch cfg.UI.Theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	cl := client.NewClient(cfg.Server.URL, cfg.Player.Table, quartz.NewReal(), logger)
	var actions tui.Actions
	if c.Play {
		actions = cl
	}
	model := tui.NewWatchModel(cfg.Player.Table, actions, logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	cl.OnState(func(s game.Snapshot) { p.Send(tui.StateMsg(s)) })
	cl.OnSeatDenied(func(d server.SeatDeniedData) { p.Send(tui.SeatDeniedMsg{Seat: d.Seat}) })
	cl.OnError(func(e server.ErrorData) { p.Send(tui.ServerErrorMsg{Code: e.Code, Message: e.Message}) })

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	err = cl.Connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.Join(cfg.Player.MinBet); err != nil {
		return fmt.Errorf("join %s: %w", cfg.Player.Table, err)
	}
	go func() {
		if err := cl.RunHeartbeat(ctx, cfg.HeartbeatInterval()); err != nil {
			logger.Warn("Heartbeat stopped", "error", err)
		}
	}()
	go func() {
		select {
		case <-cl.Done():
			p.Send(tui.DisconnectedMsg{})
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
