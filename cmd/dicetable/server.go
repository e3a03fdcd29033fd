package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/dicetable/cmd/dicetable/shared"
	"github.com/lox/dicetable/internal/game"
	"github.com/lox/dicetable/internal/randutil"
	"github.com/lox/dicetable/internal/server"
)

type ServerCmd struct {
	Config    string `kong:"default='dicetable.hcl',help='Path to server HCL config'"`
	Addr      string `kong:"help='Listen address (host:port), overrides config'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	LogFormat string `kong:"default='text',enum='text,json,logfmt',help='Log output format'"`
	Seed      *int64 `kong:"help='Seed for dice (deterministic per table)'"`
	TickLimit int    `kong:"default='16',help='Maximum tables ticked concurrently (0 for no limit)'"`
}

func (c *ServerCmd) Run() error {
	logger, err := shared.StderrLogger(c.Debug, c.LogFormat)
	if err != nil {
		return err
	}

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr %q: %w", c.Addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --addr port %q: %w", port, err)
		}
		if host != "" {
			cfg.Server.Address = host
		}
		cfg.Server.Port = p
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := shared.ParseLevel(logger, cfg.Server.LogLevel, c.Debug); err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic dice", "seed", seed)
	}
	dice := func(tableID string) game.DiceSource {
		return randutil.ForTable(seed, tableID)
	}

	srv, err := server.NewServer(cfg, quartz.NewReal(), dice, logger)
	if err != nil {
		return err
	}
	srv.Registry().SetTickLimit(c.TickLimit)

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	logger.Info("Starting dice table server",
		"addr", cfg.GetServerAddress(),
		"tables", len(cfg.Tables))

	return srv.Start(ctx)
}
