package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// DefaultConsoleReporter implements console output using go-pretty tables
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputResults prints a single-run summary to stdout
func (r *DefaultConsoleReporter) OutputResults(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS — %s", results.StrategyName)
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Instrument", results.Instrument},
		{"💰 Initial Balance", fmt.Sprintf("$%.2f", results.StartBalance)},
		{"💰 Final Balance", fmt.Sprintf("$%.2f", results.EndBalance)},
		{"📈 Total PnL", fmt.Sprintf("$%.2f", results.TotalPnL)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)},
		{"💹 Profit Factor", formatProfitFactor(results.ProfitFactor)},
		{"🔄 Total Trades", fmt.Sprintf("%d", results.TotalTrades)},
		{"✅ Winning Trades", fmt.Sprintf("%d (%.1f%%)", results.WinningTrades, results.WinRate*100)},
		{"❌ Losing Trades", fmt.Sprintf("%d", results.LosingTrades)},
		{"🛡️ Risk Level", string(results.Risk.RiskLevel)},
		{"🚫 Blocked Trades", fmt.Sprintf("%d", len(results.BlockedTrades))},
	})

	t.Render()

	if results.LowConfidence {
		fmt.Printf("⚠️ Only %d trades — metrics are statistically weak\n", results.TotalTrades)
	}
	if results.Incomplete {
		fmt.Println("⚠️ Run aborted before end of data; results are partial")
	}
}

// OutputComparison prints a strategy comparison table, best Sharpe first
func (r *DefaultConsoleReporter) OutputComparison(results map[string]*backtest.Results) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return results[names[i]].SharpeRatio > results[names[j]].SharpeRatio
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("STRATEGY COMPARISON")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		"Strategy", "Final Balance", "PnL", "Trades", "Win Rate", "Max DD", "Sharpe", "PF",
	})

	for _, name := range names {
		res := results[name]
		t.AppendRow(table.Row{
			name,
			fmt.Sprintf("$%.2f", res.EndBalance),
			fmt.Sprintf("$%.2f", res.TotalPnL),
			res.TotalTrades,
			fmt.Sprintf("%.1f%%", res.WinRate*100),
			fmt.Sprintf("%.2f%%", res.MaxDrawdown*100),
			fmt.Sprintf("%.2f", res.SharpeRatio),
			formatProfitFactor(res.ProfitFactor),
		})
	}

	t.Render()
}

// PrintTradeHistory prints the closed-trade ledger when verbose mode is on
func (r *DefaultConsoleReporter) PrintTradeHistory(results *backtest.Results) {
	if len(results.Ledger) == 0 {
		return
	}

	fmt.Println("\n📋 TRADE HISTORY:")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-12s %-6s %-12s %-12s %-12s %-12s %-12s\n",
		"Opened", "Side", "Entry", "Exit", "Size", "PnL", "Exit Reason")
	fmt.Println(strings.Repeat("-", 100))

	for _, p := range results.Ledger {
		fmt.Printf("%-12s %-6s $%-11.2f $%-11.2f %-12.6f $%-11.2f %-12s\n",
			p.OpenedAt.Format("2006-01-02"),
			p.Side,
			p.EntryPrice,
			p.ExitPrice,
			p.Size,
			p.RealizedPnL,
			p.ExitReason)
	}
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞ (no losses)"
	}
	return fmt.Sprintf("%.2f", pf)
}

func defaultOutputDir(instrument, strategyName string) string {
	s := strings.ToUpper(strings.TrimSpace(instrument))
	if s == "" {
		s = "UNKNOWN"
	}
	n := strings.ToLower(strings.TrimSpace(strategyName))
	if n == "" {
		n = "unknown"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, n))
}
