package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/ducminhle1904/prediction-trader/internal/errors"
)

func validConfig() *Config {
	return &Config{
		Instrument:          "BTCUSDT",
		InitialBalance:      1000,
		MaxPositionSizePct:  0.10,
		StopLossPct:         0.05,
		TakeProfitPct:       0.10,
		MaxDrawdownPct:      0.20,
		DailyLossLimitPct:   0.05,
		MaxTotalExposurePct: 0.15,
		MinTradeSize:        0.0001,
		TradesPerYear:       252,
		Timezone:            "UTC",
	}
}

// TestValidate_Accepts tests a fully specified configuration
func TestValidate_Accepts(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "UTC", cfg.Location().String())
}

// TestValidate_MissingPercentage tests that an unset risk percentage is a
// configuration error, not a silent default
func TestValidate_MissingPercentage(t *testing.T) {
	cfg := validConfig()
	cfg.StopLossPct = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.ErrorCategoryConfiguration))
	assert.Contains(t, err.Error(), "stop_loss_pct")
}

// TestValidate_PercentageOutOfRange tests the (0, 1] bound on every pct
func TestValidate_PercentageOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.MaxDrawdownPct = 1.5
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.MaxPositionSizePct = -0.1
	require.Error(t, cfg.Validate())
}

// TestValidate_BadTimezone tests rejection of an unknown IANA zone
func TestValidate_BadTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Mars/Olympus_Mons"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.ErrorCategoryConfiguration))
}

// TestValidate_Commission tests the [0, 1) commission bound
func TestValidate_Commission(t *testing.T) {
	cfg := validConfig()
	cfg.Commission = 1.0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Commission = 0.0
	require.NoError(t, cfg.Validate())
}

// TestLoadFile_TOML tests loading and validating a TOML config
func TestLoadFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
instrument = "ETHUSDT"
initial_balance = 2500.0
commission = 0.001
max_position_size_pct = 0.10
stop_loss_pct = 0.05
take_profit_pct = 0.10
max_drawdown_pct = 0.20
daily_loss_limit_pct = 0.05
max_total_exposure_pct = 0.15
timezone = "America/New_York"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Instrument)
	assert.Equal(t, 2500.0, cfg.InitialBalance)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	// Untouched settings fall back to defaults
	assert.Equal(t, DefaultMinTrades, cfg.MinTradesForSignificance)
	assert.Equal(t, DefaultTradesPerYear, cfg.TradesPerYear)
	assert.Equal(t, DefaultWindowSize, cfg.WindowSize)
}

// TestLoadFile_JSON tests loading a JSON config
func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"instrument": "BTCUSDT",
		"max_position_size_pct": 0.10,
		"stop_loss_pct": 0.05,
		"take_profit_pct": 0.10,
		"max_drawdown_pct": 0.20,
		"daily_loss_limit_pct": 0.05,
		"max_total_exposure_pct": 0.15
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialBalance, cfg.InitialBalance)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
}

// TestLoadFile_MissingRequired tests that a config without risk limits fails
func TestLoadFile_MissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`instrument = "BTCUSDT"`), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.ErrorCategoryConfiguration))
}

// TestLoadFile_UnsupportedFormat tests the extension check
func TestLoadFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instrument: BTCUSDT"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

// TestApplyEnv tests environment-variable overrides
func TestApplyEnv(t *testing.T) {
	t.Setenv("TRADING_INSTRUMENT", "SOLUSDT")
	t.Setenv("INITIAL_BALANCE", "5000")
	t.Setenv("HALT_ON_RED", "true")

	cfg := validConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "SOLUSDT", cfg.Instrument)
	assert.Equal(t, 5000.0, cfg.InitialBalance)
	assert.True(t, cfg.HaltOnRed)
}
