package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/croupier/internal/game"
)

// Config is the complete bot configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains transport-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings tunes the wagering engine
type GameSettings struct {
	MinWager           int     `hcl:"min_wager,optional"`
	MaxWager           int     `hcl:"max_wager,optional"`
	IdleTimeoutSeconds int     `hcl:"idle_timeout_seconds,optional"`
	StartingBalance    int     `hcl:"starting_balance,optional"`
	DiceSkew           float64 `hcl:"dice_skew,optional"`
	Seed               int64   `hcl:"seed,optional"`
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			MinWager:           1,
			MaxWager:           1000,
			IdleTimeoutSeconds: 180,
			StartingBalance:    500,
			DiceSkew:           1.3,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist or omits fields.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.MinWager == 0 {
		config.Game.MinWager = defaults.Game.MinWager
	}
	if config.Game.MaxWager == 0 {
		config.Game.MaxWager = defaults.Game.MaxWager
	}
	if config.Game.IdleTimeoutSeconds == 0 {
		config.Game.IdleTimeoutSeconds = defaults.Game.IdleTimeoutSeconds
	}
	if config.Game.StartingBalance == 0 {
		config.Game.StartingBalance = defaults.Game.StartingBalance
	}
	if config.Game.DiceSkew == 0 {
		config.Game.DiceSkew = defaults.Game.DiceSkew
	}

	return &config, nil
}

// SessionConfig converts the game block into the session manager's config.
func (c *Config) SessionConfig() game.SessionConfig {
	return game.SessionConfig{
		MinWager:    c.Game.MinWager,
		MaxWager:    c.Game.MaxWager,
		IdleTimeout: time.Duration(c.Game.IdleTimeoutSeconds) * time.Second,
	}
}

// DiceConfig converts the game block into the dice command's config.
func (c *Config) DiceConfig() game.DiceConfig {
	return game.DiceConfig{
		MinWager: c.Game.MinWager,
		MaxWager: c.Game.MaxWager,
		Skew:     c.Game.DiceSkew,
	}
}
