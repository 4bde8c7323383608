package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// jsonReport wraps Results with a JSON-safe profit factor. encoding/json
// rejects +Inf, so the sentinel becomes a null with an explicit flag.
type jsonReport struct {
	*backtest.Results
	ProfitFactor *float64 `json:"profit_factor"`
	NoLosses     bool     `json:"no_losses,omitempty"`
}

// FormatReportJSON marshals results to indented JSON
func FormatReportJSON(results *backtest.Results) ([]byte, error) {
	report := jsonReport{Results: results}
	if math.IsInf(results.ProfitFactor, 1) {
		report.NoLosses = true
	} else {
		pf := results.ProfitFactor
		report.ProfitFactor = &pf
	}
	return json.MarshalIndent(report, "", "  ")
}

// WriteReportJSON writes the full results snapshot to a JSON file
func (r *DefaultFileReporter) WriteReportJSON(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	data, err := FormatReportJSON(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
