package reporting

// Package reporting provides output generation for backtest results

import (
	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResults(results *backtest.Results)
	OutputComparison(results map[string]*backtest.Results)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(results *backtest.Results, path string) error
	WriteTradesXLSX(results *backtest.Results, path string) error
	WriteReportJSON(results *backtest.Results, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	BaseStyle     int
	WinStyle      int
	LossStyle     int
	SummaryStyle  int
}

// Reporter combines console and file reporting
type Reporter interface {
	ConsoleReporter
	FileReporter
}

// DefaultOutputDir returns the conventional results directory for a run
func DefaultOutputDir(instrument, strategyName string) string {
	return defaultOutputDir(instrument, strategyName)
}
