package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8645", cfg.ListenAddress)
	require.Equal(t, uint64(5_000), cfg.Engine.LiquidationThresholdBps)
	require.Equal(t, uint64(1_000), cfg.Engine.LiquidationBonusBps)
	require.Equal(t, 3*time.Hour, cfg.Oracle.StaleTimeout())
	require.Equal(t, []string{"WETH"}, cfg.Oracle.CollateralAssets)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[oracle]
CollateralAssets = ["WETH", "WBTC"]
PriceFeeds = ["http://feeds.local/weth", "http://feeds.local/wbtc"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.ListenAddress)
	require.Equal(t, "./vaultdata", cfg.DataDir)
	require.Equal(t, "./vaultd.key", cfg.KeyFile)
	require.Equal(t, uint8(8), cfg.Oracle.FeedDecimals)
	require.Len(t, cfg.Oracle.CollateralAssets, 2)
}

func TestLoadRejectsLengthMismatch(t *testing.T) {
	path := writeConfig(t, `
[oracle]
CollateralAssets = ["WETH", "WBTC"]
PriceFeeds = ["http://feeds.local/weth"]
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigLengthMismatch)
}

func TestValidateRejectsBadInput(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			Oracle: OracleConfig{
				CollateralAssets: []string{"WETH"},
				PriceFeeds:       []string{"http://feeds.local/weth"},
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	cfg := base()
	cfg.Oracle.CollateralAssets = nil
	cfg.Oracle.PriceFeeds = nil
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Oracle.CollateralAssets = []string{"WETH", "weth"}
	cfg.Oracle.PriceFeeds = []string{"a", "b"}
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Engine.LiquidationThresholdBps = 10_001
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Engine.LiquidationBonusBps = 10_000
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Oracle.StaleTimeoutSeconds = -1
	require.Error(t, cfg.Validate())
}
