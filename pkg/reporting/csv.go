package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// DefaultFileReporter implements CSV, Excel and JSON file output
type DefaultFileReporter struct{}

// NewDefaultFileReporter creates a new file reporter
func NewDefaultFileReporter() *DefaultFileReporter {
	return &DefaultFileReporter{}
}

// WriteTradesCSV writes the closed-trade ledger to a CSV file. An .xlsx
// path is routed to the Excel writer instead.
func (r *DefaultFileReporter) WriteTradesCSV(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return r.WriteTradesXLSX(results, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"ID",
		"Side",
		"Entry price",
		"Exit price",
		"Opened at",
		"Closed at",
		"Size",
		"Commission",
		"PnL",
		"Exit reason",
	}); err != nil {
		return err
	}

	var totalPnL float64
	var totalFees float64

	for _, p := range results.Ledger {
		totalPnL += p.RealizedPnL
		totalFees += p.Commission

		row := []string{
			p.ID,
			string(p.Side),
			fmt.Sprintf("%.8f", p.EntryPrice),
			fmt.Sprintf("%.8f", p.ExitPrice),
			p.OpenedAt.Format("2006-01-02 15:04:05"),
			p.ClosedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.6f", p.Size),
			fmt.Sprintf("%.4f", p.Commission),
			fmt.Sprintf("%.4f", p.RealizedPnL),
			string(p.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("pnl=%.4f; fees=%.4f; end_balance=%.4f", totalPnL, totalFees, results.EndBalance)
	return w.Write([]string{"", "", "", "", "", "", "", "", "", summary})
}
