package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ClientConfig is the configuration shared by the bot and watch commands.
type ClientConfig struct {
	Server ServerConnection `hcl:"server,block"`
	Player PlayerSettings   `hcl:"player,block"`
	UI     UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL               string `hcl:"url,optional"`
	ConnectTimeout    int    `hcl:"connect_timeout,optional"`
	HeartbeatInterval int    `hcl:"heartbeat_interval,optional"`
}

// PlayerSettings controls which table to join and how a bot wagers.
type PlayerSettings struct {
	Table          string  `hcl:"table,optional"`
	Seat           string  `hcl:"seat,optional"`
	MinBet         int64   `hcl:"min_bet,optional"`
	MaxBetUnits    int     `hcl:"max_bet_units,optional"`
	BetProbability float64 `hcl:"bet_probability,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	Theme    string `hcl:"theme,optional"`
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Server: ServerConnection{
			URL:               "http://localhost:8080",
			ConnectTimeout:    10,
			HeartbeatInterval: 10,
		},
		Player: PlayerSettings{
			Table:          "main",
			MaxBetUnits:    4,
			BetProbability: 0.8,
		},
		UI: UISettings{
			LogLevel: "warn",
			Theme:    "default",
		},
	}
}

// LoadClientConfig loads client configuration from an HCL file. A missing
// file yields the defaults.
func LoadClientConfig(filename string) (*ClientConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultClientConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ClientConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultClientConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.HeartbeatInterval == 0 {
		config.Server.HeartbeatInterval = defaults.Server.HeartbeatInterval
	}
	if config.Player.Table == "" {
		config.Player.Table = defaults.Player.Table
	}
	if config.Player.MaxBetUnits == 0 {
		config.Player.MaxBetUnits = defaults.Player.MaxBetUnits
	}
	if config.Player.BetProbability == 0 {
		config.Player.BetProbability = defaults.Player.BetProbability
	}
	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.Theme == "" {
		config.UI.Theme = defaults.UI.Theme
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Player.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.Server.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.Player.MinBet < 0 {
		return fmt.Errorf("min bet cannot be negative")
	}
	if c.Player.MaxBetUnits <= 0 {
		return fmt.Errorf("max bet units must be positive")
	}
	if c.Player.BetProbability < 0 || c.Player.BetProbability > 1 {
		return fmt.Errorf("bet probability must be between 0 and 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	validThemes := map[string]bool{
		"default": true,
		"dark":    true,
		"light":   true,
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	return nil
}

// ConnectTimeout returns the dial timeout.
func (c *ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// HeartbeatInterval returns how often to heartbeat. It must stay well under
// the server's heartbeat timeout.
func (c *ClientConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.Server.HeartbeatInterval) * time.Second
}
