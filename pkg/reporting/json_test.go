package reporting

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// TestFormatReportJSON_InfiniteProfitFactor tests that the +Inf sentinel
// serializes as a null with an explicit no-losses flag
func TestFormatReportJSON_InfiniteProfitFactor(t *testing.T) {
	results := &backtest.Results{
		StrategyName: "baseline_direction",
		Instrument:   "BTCUSDT",
		StartBalance: 1000,
		EndBalance:   1010,
		ProfitFactor: math.Inf(1),
	}

	data, err := FormatReportJSON(results)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Nil(t, decoded["profit_factor"])
	assert.Equal(t, true, decoded["no_losses"])
	assert.Equal(t, "BTCUSDT", decoded["instrument"])
}

// TestFormatReportJSON_FiniteProfitFactor tests the normal numeric path
func TestFormatReportJSON_FiniteProfitFactor(t *testing.T) {
	results := &backtest.Results{
		StrategyName: "rsi_reversion",
		Instrument:   "BTCUSDT",
		ProfitFactor: 1.75,
	}

	data, err := FormatReportJSON(results)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.InDelta(t, 1.75, decoded["profit_factor"].(float64), 1e-9)
	_, hasFlag := decoded["no_losses"]
	assert.False(t, hasFlag)
}

// TestWriteReportJSON tests the file output path including directory
// creation
func TestWriteReportJSON(t *testing.T) {
	results := &backtest.Results{
		StrategyName: "baseline_direction",
		Instrument:   "BTCUSDT",
		StartBalance: 1000,
		EndBalance:   995,
	}

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	files := NewDefaultFileReporter()
	require.NoError(t, files.WriteReportJSON(results, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 995.0, decoded["end_balance"])
}

// TestWriteTradesCSV tests the ledger CSV output
func TestWriteTradesCSV(t *testing.T) {
	results := &backtest.Results{
		StrategyName: "baseline_direction",
		Instrument:   "BTCUSDT",
		EndBalance:   995,
	}

	path := filepath.Join(t.TempDir(), "trades.csv")
	files := NewDefaultFileReporter()
	require.NoError(t, files.WriteTradesCSV(results, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Entry price")
	assert.Contains(t, string(data), "end_balance=995.0000")
}
