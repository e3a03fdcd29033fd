package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/dicetable/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server   *ServerSettings `hcl:"server,block"`
	Timing   *TimingSettings `hcl:"timing,block"`
	Defaults *TableDefaults  `hcl:"defaults,block"`
	Tables   []TableConfig   `hcl:"table,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TimingSettings holds durations as written in the file, e.g. "15s".
type TimingSettings struct {
	TickInterval     string `hcl:"tick_interval,optional"`
	BettingWindow    string `hcl:"betting_window,optional"`
	RollWindow       string `hcl:"roll_window,optional"`
	RollDelay        string `hcl:"roll_delay,optional"`
	BannerDuration   string `hcl:"banner_duration,optional"`
	HeartbeatTimeout string `hcl:"heartbeat_timeout,optional"`
	IdleTableTTL     string `hcl:"idle_table_ttl,optional"`
}

// TableDefaults apply to tables created on first join.
type TableDefaults struct {
	MinBet             int64 `hcl:"min_bet,optional"`
	MaxMinBet          int64 `hcl:"max_min_bet,optional"`
	SeatCount          int   `hcl:"seat_count,optional"`
	StartingMultiplier int64 `hcl:"starting_multiplier,optional"`
	ActivityLimit      int   `hcl:"activity_limit,optional"`
}

// TableConfig pre-creates a table at startup.
type TableConfig struct {
	ID     string   `hcl:"id,label"`
	MinBet int64    `hcl:"min_bet,optional"`
	Seats  []string `hcl:"seats,optional"`
}

// Timing is the parsed form of TimingSettings.
type Timing struct {
	TickInterval     time.Duration
	BettingWindow    time.Duration
	RollWindow       time.Duration
	RollDelay        time.Duration
	BannerDuration   time.Duration
	HeartbeatTimeout time.Duration
	IdleTableTTL     time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decodeServerConfig(file)
}

// ParseServerConfig decodes configuration from HCL source.
func ParseServerConfig(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decodeServerConfig(file)
}

func decodeServerConfig(file *hcl.File) (*ServerConfig, error) {
	var config ServerConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Timing == nil {
		c.Timing = &TimingSettings{}
	}
	setDefault(&c.Timing.TickInterval, "1s")
	setDefault(&c.Timing.BettingWindow, "15s")
	setDefault(&c.Timing.RollWindow, "5s")
	setDefault(&c.Timing.RollDelay, "450ms")
	setDefault(&c.Timing.BannerDuration, "2500ms")
	setDefault(&c.Timing.HeartbeatTimeout, "35s")
	setDefault(&c.Timing.IdleTableTTL, "0s")

	if c.Defaults == nil {
		c.Defaults = &TableDefaults{}
	}
	if c.Defaults.MinBet == 0 {
		c.Defaults.MinBet = 5
	}
	if c.Defaults.MaxMinBet == 0 {
		c.Defaults.MaxMinBet = 1_000_000
	}
	if c.Defaults.SeatCount == 0 {
		c.Defaults.SeatCount = 7
	}
	if c.Defaults.StartingMultiplier == 0 {
		c.Defaults.StartingMultiplier = 200
	}
	if c.Defaults.ActivityLimit == 0 {
		c.Defaults.ActivityLimit = 12
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// ParseTiming parses every duration in the timing block.
func (c *ServerConfig) ParseTiming() (Timing, error) {
	var t Timing
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"tick_interval", c.Timing.TickInterval, &t.TickInterval},
		{"betting_window", c.Timing.BettingWindow, &t.BettingWindow},
		{"roll_window", c.Timing.RollWindow, &t.RollWindow},
		{"roll_delay", c.Timing.RollDelay, &t.RollDelay},
		{"banner_duration", c.Timing.BannerDuration, &t.BannerDuration},
		{"heartbeat_timeout", c.Timing.HeartbeatTimeout, &t.HeartbeatTimeout},
		{"idle_table_ttl", c.Timing.IdleTableTTL, &t.IdleTableTTL},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timing{}, fmt.Errorf("timing.%s: %w", f.name, err)
		}
		if d < 0 {
			return Timing{}, fmt.Errorf("timing.%s: must not be negative", f.name)
		}
		*f.dst = d
	}
	return t, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	t, err := c.ParseTiming()
	if err != nil {
		return err
	}
	if t.TickInterval <= 0 {
		return errors.New("timing.tick_interval must be positive")
	}
	if t.BettingWindow < time.Second || t.BettingWindow%time.Second != 0 {
		return fmt.Errorf("timing.betting_window must be whole seconds, got %s", t.BettingWindow)
	}
	if t.RollWindow < time.Second || t.RollWindow%time.Second != 0 {
		return fmt.Errorf("timing.roll_window must be whole seconds, got %s", t.RollWindow)
	}

	if c.Defaults.MinBet > c.Defaults.MaxMinBet {
		return fmt.Errorf("defaults.min_bet %d exceeds defaults.max_min_bet %d", c.Defaults.MinBet, c.Defaults.MaxMinBet)
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, tc := range c.Tables {
		if seen[tc.ID] {
			return fmt.Errorf("table %s: declared twice", tc.ID)
		}
		seen[tc.ID] = true
		if err := c.GameConfig(tc.ID, 0).Validate(); err != nil {
			return fmt.Errorf("table %s: %w", tc.ID, err)
		}
	}
	return c.GameConfig("", 0).Validate()
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByID returns a pre-declared table, if any.
func (c *ServerConfig) GetTableByID(id string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].ID == id {
			return &c.Tables[i]
		}
	}
	return nil
}

// GameConfig builds the rules for table id. A declared table's min bet wins
// over the requested one; a non-positive request falls back to the default.
func (c *ServerConfig) GameConfig(id string, requestedMinBet int64) game.Config {
	t, _ := c.ParseTiming()

	cfg := game.Config{
		Seats:              game.SeatLabels(c.Defaults.SeatCount),
		MinBet:             c.Defaults.MinBet,
		StartingMultiplier: c.Defaults.StartingMultiplier,
		BettingSeconds:     int(t.BettingWindow / time.Second),
		RollWindowSeconds:  int(t.RollWindow / time.Second),
		HeartbeatTimeout:   t.HeartbeatTimeout,
		ActivityLimit:      c.Defaults.ActivityLimit,
	}
	if requestedMinBet > 0 {
		cfg.MinBet = requestedMinBet
	}
	if tc := c.GetTableByID(id); tc != nil {
		if tc.MinBet > 0 {
			cfg.MinBet = tc.MinBet
		}
		if len(tc.Seats) > 0 {
			cfg.Seats = tc.Seats
		}
	}
	return cfg
}
