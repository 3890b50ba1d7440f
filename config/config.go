package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrConfigLengthMismatch rejects construction-time asset and feed lists of
// unequal length.
var ErrConfigLengthMismatch = errors.New("config: collateral asset and price feed lists must have equal length")

// Config is the runtime configuration for the vault daemon.
type Config struct {
	ListenAddress string       `toml:"ListenAddress"`
	DataDir       string       `toml:"DataDir"`
	KeyFile       string       `toml:"KeyFile"`
	Environment   string       `toml:"Environment"`
	Engine        EngineConfig `toml:"engine"`
	Oracle        OracleConfig `toml:"oracle"`
}

// EngineConfig carries the risk parameters in basis points.
type EngineConfig struct {
	LiquidationThresholdBps uint64 `toml:"LiquidationThresholdBps"`
	LiquidationBonusBps     uint64 `toml:"LiquidationBonusBps"`
}

// OracleConfig binds the ordered collateral asset list to its price feeds.
// The two lists are parallel and must have equal length.
type OracleConfig struct {
	StaleTimeoutSeconds int64    `toml:"StaleTimeoutSeconds"`
	FeedDecimals        uint8    `toml:"FeedDecimals"`
	CollateralAssets    []string `toml:"CollateralAssets"`
	PriceFeeds          []string `toml:"PriceFeeds"`
}

// StaleTimeout returns the configured staleness window as a duration.
func (o OracleConfig) StaleTimeout() time.Duration {
	return time.Duration(o.StaleTimeoutSeconds) * time.Second
}

// Load reads the configuration from the given path, creating a default file
// on first run.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./vaultdata"
	}
	if strings.TrimSpace(c.KeyFile) == "" {
		c.KeyFile = "./vaultd.key"
	}
	if c.Engine.LiquidationThresholdBps == 0 {
		c.Engine.LiquidationThresholdBps = 5_000
	}
	if c.Engine.LiquidationBonusBps == 0 {
		c.Engine.LiquidationBonusBps = 1_000
	}
	if c.Oracle.StaleTimeoutSeconds == 0 {
		c.Oracle.StaleTimeoutSeconds = 10_800
	}
	if c.Oracle.FeedDecimals == 0 {
		c.Oracle.FeedDecimals = 8
	}
}

// Validate checks list lengths, risk parameter bounds, and asset uniqueness.
func (c *Config) Validate() error {
	if len(c.Oracle.CollateralAssets) != len(c.Oracle.PriceFeeds) {
		return ErrConfigLengthMismatch
	}
	if len(c.Oracle.CollateralAssets) == 0 {
		return fmt.Errorf("config: at least one collateral asset required")
	}
	seen := make(map[string]struct{}, len(c.Oracle.CollateralAssets))
	for i, asset := range c.Oracle.CollateralAssets {
		symbol := strings.ToUpper(strings.TrimSpace(asset))
		if symbol == "" {
			return fmt.Errorf("config: collateral asset %d is empty", i)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("config: duplicate collateral asset %s", symbol)
		}
		seen[symbol] = struct{}{}
		if strings.TrimSpace(c.Oracle.PriceFeeds[i]) == "" {
			return fmt.Errorf("config: price feed for %s is empty", symbol)
		}
	}
	if c.Engine.LiquidationThresholdBps == 0 || c.Engine.LiquidationThresholdBps > 10_000 {
		return fmt.Errorf("config: liquidation threshold %d bps out of range", c.Engine.LiquidationThresholdBps)
	}
	if c.Engine.LiquidationBonusBps >= 10_000 {
		return fmt.Errorf("config: liquidation bonus %d bps out of range", c.Engine.LiquidationBonusBps)
	}
	if c.Oracle.StaleTimeoutSeconds <= 0 {
		return fmt.Errorf("config: stale timeout must be positive")
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Oracle: OracleConfig{
			CollateralAssets: []string{"WETH"},
			PriceFeeds:       []string{"http://127.0.0.1:9900/feeds/weth-usd"},
		},
	}
	cfg.applyDefaults()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
