package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	engerrors "github.com/ducminhle1904/prediction-trader/internal/errors"
)

const (
	// Defaults for non-critical parameters. The risk percentages have no
	// defaults: they must be supplied explicitly.
	DefaultInitialBalance = 1000.0
	DefaultCommission     = 0.0
	DefaultMinTradeSize   = 0.0001
	DefaultMinTrades      = 20
	DefaultTradesPerYear  = 252.0
	DefaultWindowSize     = 50
	DefaultTimezone       = "UTC"
)

// Config holds all parameters for a simulation run. The six risk
// percentages are required and validated at construction; everything else
// falls back to defaults.
type Config struct {
	Instrument     string  `json:"instrument" toml:"instrument"`
	InitialBalance float64 `json:"initial_balance" toml:"initial_balance"`
	Commission     float64 `json:"commission" toml:"commission"`

	// Risk limits (required, each must lie in (0, 1])
	MaxPositionSizePct  float64 `json:"max_position_size_pct" toml:"max_position_size_pct"`
	StopLossPct         float64 `json:"stop_loss_pct" toml:"stop_loss_pct"`
	TakeProfitPct       float64 `json:"take_profit_pct" toml:"take_profit_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct" toml:"max_drawdown_pct"`
	DailyLossLimitPct   float64 `json:"daily_loss_limit_pct" toml:"daily_loss_limit_pct"`
	MaxTotalExposurePct float64 `json:"max_total_exposure_pct" toml:"max_total_exposure_pct"`

	// Position handling
	MinTradeSize     float64 `json:"min_trade_size" toml:"min_trade_size"`
	MaxOpenPositions int     `json:"max_open_positions" toml:"max_open_positions"` // 0 = no cap
	HaltOnRed        bool    `json:"halt_on_red" toml:"halt_on_red"`

	// Run limits (0 = unlimited)
	MaxTrades int `json:"max_trades" toml:"max_trades"`
	MaxBars   int `json:"max_bars" toml:"max_bars"`

	// Metrics
	MinTradesForSignificance int     `json:"min_trades_for_significance" toml:"min_trades_for_significance"`
	TradesPerYear            float64 `json:"trades_per_year" toml:"trades_per_year"`

	// Strategy data window (bars handed to the strategy per evaluation)
	WindowSize int `json:"window_size" toml:"window_size"`

	// Day-boundary convention for the daily loss limit reset.
	// IANA zone name, e.g. "UTC" or "America/New_York".
	Timezone string `json:"timezone" toml:"timezone"`

	location *time.Location
}

// LoadFile reads a configuration file. The format is chosen by
// extension: .toml or .json.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engerrors.WrapError(err, engerrors.ErrorCategoryConfiguration, "config", "load_file")
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, engerrors.WrapError(err, engerrors.ErrorCategoryConfiguration, "config", "parse_toml")
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, engerrors.WrapError(err, engerrors.ErrorCategoryConfiguration, "config", "parse_json")
		}
	default:
		return nil, engerrors.NewConfigurationError("load_file",
			fmt.Sprintf("unsupported config format %q (use .toml or .json)", filepath.Ext(path)))
	}

	cfg.ApplyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides non-critical settings from the environment.
func (c *Config) ApplyEnv() {
	c.Instrument = getEnv("TRADING_INSTRUMENT", c.Instrument)
	c.InitialBalance = getEnvFloat("INITIAL_BALANCE", c.InitialBalance)
	c.Commission = getEnvFloat("COMMISSION", c.Commission)
	c.Timezone = getEnv("TRADING_TIMEZONE", c.Timezone)
	c.HaltOnRed = getEnvBool("HALT_ON_RED", c.HaltOnRed)
	c.MaxOpenPositions = getEnvInt("MAX_OPEN_POSITIONS", c.MaxOpenPositions)
}

func (c *Config) applyDefaults() {
	if c.InitialBalance == 0 {
		c.InitialBalance = DefaultInitialBalance
	}
	if c.MinTradeSize == 0 {
		c.MinTradeSize = DefaultMinTradeSize
	}
	if c.MinTradesForSignificance == 0 {
		c.MinTradesForSignificance = DefaultMinTrades
	}
	if c.TradesPerYear == 0 {
		c.TradesPerYear = DefaultTradesPerYear
	}
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// Validate checks every risk-critical parameter. A missing percentage is a
// configuration error, never a silently applied default.
func (c *Config) Validate() error {
	pcts := []struct {
		name  string
		value float64
	}{
		{"max_position_size_pct", c.MaxPositionSizePct},
		{"stop_loss_pct", c.StopLossPct},
		{"take_profit_pct", c.TakeProfitPct},
		{"max_drawdown_pct", c.MaxDrawdownPct},
		{"daily_loss_limit_pct", c.DailyLossLimitPct},
		{"max_total_exposure_pct", c.MaxTotalExposurePct},
	}
	for _, p := range pcts {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return engerrors.NewConfigurationError("validate",
				fmt.Sprintf("%s must be finite, got %v", p.name, p.value))
		}
		if p.value <= 0 || p.value > 1 {
			return engerrors.NewConfigurationError("validate",
				fmt.Sprintf("%s must lie in (0, 1], got %v", p.name, p.value))
		}
	}

	if c.InitialBalance <= 0 {
		return engerrors.NewConfigurationError("validate",
			fmt.Sprintf("initial_balance must be positive, got %v", c.InitialBalance))
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return engerrors.NewConfigurationError("validate",
			fmt.Sprintf("commission must lie in [0, 1), got %v", c.Commission))
	}
	if c.MinTradeSize <= 0 {
		return engerrors.NewConfigurationError("validate",
			fmt.Sprintf("min_trade_size must be positive, got %v", c.MinTradeSize))
	}
	if c.MaxOpenPositions < 0 || c.MaxTrades < 0 || c.MaxBars < 0 {
		return engerrors.NewConfigurationError("validate", "run limits must be non-negative")
	}
	if c.TradesPerYear <= 0 {
		return engerrors.NewConfigurationError("validate",
			fmt.Sprintf("trades_per_year must be positive, got %v", c.TradesPerYear))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return engerrors.WrapError(err, engerrors.ErrorCategoryConfiguration, "config", "load_timezone")
	}
	c.location = loc

	return nil
}

// Location returns the day-boundary timezone. Validate must have been
// called first; an unvalidated config falls back to UTC.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
