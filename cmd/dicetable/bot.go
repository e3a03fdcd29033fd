package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/dicetable/cmd/dicetable/shared"
	"github.com/lox/dicetable/internal/bot"
	"github.com/lox/dicetable/internal/client"
	"github.com/lox/dicetable/internal/randutil"
	"github.com/lox/dicetable/internal/server"
)

type BotCmd struct {
	Config    string `kong:"default='client.hcl',help='Path to client HCL config'"`
	Server    string `kong:"help='Server URL, overrides config'"`
	Table     string `kong:"help='Table to join, overrides config'"`
	Seat      string `kong:"help='Preferred seat for the first bot'"`
	MinBet    int64  `kong:"help='Minimum bet requested when creating the table'"`
	Count     int    `kong:"default='1',help='Number of bots to run'"`
	Strategy  string `kong:"default='rand',enum='rand,passive',help='Wagering strategy (rand, passive)'"`
	Seed      *int64 `kong:"help='Seed for bot decisions'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	LogFormat string `kong:"default='text',enum='text,json,logfmt',help='Log output format'"`
}

func (c *BotCmd) Run() error {
	logger, err := shared.StderrLogger(c.Debug, c.LogFormat)
	if err != nil {
		return err
	}

	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	if err := shared.ParseLevel(logger, cfg.UI.LogLevel, c.Debug); err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	g, ctx := errgroup.WithContext(ctx)
	for i := range c.Count {
		botLogger := logger.WithPrefix("bot").With("bot", i+1)
		preferred := ""
		if i == 0 {
			preferred = cfg.Player.Seat
		}
		g.Go(func() error {
			return c.runBot(ctx, cfg, preferred, seed+int64(i), botLogger)
		})
	}
	return g.Wait()
}

func (c *BotCmd) applyOverrides(cfg *client.ClientConfig) {
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Table != "" {
		cfg.Player.Table = c.Table
	}
	if c.Seat != "" {
		cfg.Player.Seat = c.Seat
	}
	if c.MinBet > 0 {
		cfg.Player.MinBet = c.MinBet
	}
}

func (c *BotCmd) strategy(seed int64, cfg *client.ClientConfig, logger *log.Logger) bot.Strategy {
	if c.Strategy == "passive" {
		return bot.NewPassiveBot(logger)
	}
	return bot.NewRandBot(randutil.New(seed), cfg.Player.MaxBetUnits, cfg.Player.BetProbability, logger)
}

func (c *BotCmd) runBot(ctx context.Context, cfg *client.ClientConfig, preferred string, seed int64, logger *log.Logger) error {
	clock := quartz.NewReal()
	cl := client.NewClient(cfg.Server.URL, cfg.Player.Table, clock, logger)

	b := bot.New(cl, c.strategy(seed, cfg, logger), preferred, logger)
	cl.OnState(b.HandleState)
	cl.OnSeatDenied(b.HandleSeatDenied)
	cl.OnError(func(e server.ErrorData) {
		logger.Warn("Server error", "code", e.Code, "message", e.Message)
	})

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	err := cl.Connect(dialCtx)
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

	select {
	case <-ctx.Done():
		logger.Info("Bot stopping", "seat", b.Seat())
		return nil
	case <-cl.Done():
		return errors.New("connection to server closed")
	}
}
