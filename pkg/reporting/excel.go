package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
)

// WriteTradesXLSX writes the trade ledger and run summary to an Excel
// workbook with two sheets.
func (r *DefaultFileReporter) WriteTradesXLSX(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(summarySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, results, styles); err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the workbook styles
func (r *DefaultFileReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Currency style (right aligned, $ format)
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Percentage style (right aligned, % format)
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 9,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Base style (light borders)
	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Winning trade rows (light green background)
	styles.WinStyle, err = fx.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"E6FFE6"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Losing trade rows (light red background)
	styles.LossStyle, err = fx.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFE6E6"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Summary style (bold with top border)
	styles.SummaryStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Border: []excelize.Border{
			{Type: "top", Color: "000000", Style: 2},
		},
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

// writeTradesSheet writes one row per closed position
func (r *DefaultFileReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles ExcelStyles) error {
	headers := []string{"#", "Side", "Opened", "Closed", "Entry Price", "Exit Price", "Size", "Commission", "PnL", "Exit Reason"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, header)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}

	for i, p := range results.Ledger {
		row := i + 2
		values := []interface{}{
			i + 1,
			string(p.Side),
			p.OpenedAt.Format("2006-01-02 15:04:05"),
			p.ClosedAt.Format("2006-01-02 15:04:05"),
			p.EntryPrice,
			p.ExitPrice,
			p.Size,
			p.Commission,
			p.RealizedPnL,
			string(p.ExitReason),
		}

		rowStyle := styles.LossStyle
		if p.RealizedPnL > 0 {
			rowStyle = styles.WinStyle
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			fx.SetCellValue(sheet, cell, value)
			fx.SetCellStyle(sheet, cell, cell, rowStyle)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 6)
	fx.SetColWidth(sheet, "B", "B", 8)
	fx.SetColWidth(sheet, "C", "D", 20)
	fx.SetColWidth(sheet, "E", "I", 14)
	fx.SetColWidth(sheet, "J", "J", 14)

	return nil
}

// writeSummarySheet writes the run metrics as metric/value pairs
func (r *DefaultFileReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, styles ExcelStyles) error {
	pf := "no losses"
	if !math.IsInf(results.ProfitFactor, 1) {
		pf = fmt.Sprintf("%.2f", results.ProfitFactor)
	}

	rows := [][]interface{}{
		{"Strategy", results.StrategyName},
		{"Instrument", results.Instrument},
		{"Initial Balance", results.StartBalance},
		{"Final Balance", results.EndBalance},
		{"Total PnL", results.TotalPnL},
		{"Total Trades", results.TotalTrades},
		{"Winning Trades", results.WinningTrades},
		{"Losing Trades", results.LosingTrades},
		{"Win Rate", results.WinRate},
		{"Max Drawdown", results.MaxDrawdown},
		{"Sharpe Ratio", results.SharpeRatio},
		{"Profit Factor", pf},
		{"Avg Trade PnL", results.AvgTradePnL},
		{"Final Risk Level", string(results.Risk.RiskLevel)},
		{"Blocked Trades", len(results.BlockedTrades)},
		{"Low Confidence", results.LowConfidence},
		{"Incomplete", results.Incomplete},
	}

	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle)

	for i, pair := range rows {
		row := i + 2
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		fx.SetCellValue(sheet, cellA, pair[0])
		fx.SetCellValue(sheet, cellB, pair[1])
		fx.SetCellStyle(sheet, cellA, cellA, styles.BaseStyle)

		style := styles.BaseStyle
		switch pair[0] {
		case "Initial Balance", "Final Balance", "Total PnL", "Avg Trade PnL":
			style = styles.CurrencyStyle
		case "Win Rate", "Max Drawdown":
			style = styles.PercentStyle
		}
		fx.SetCellStyle(sheet, cellB, cellB, style)
	}

	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "B", 18)

	return nil
}
