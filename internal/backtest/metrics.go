package backtest

import (
	"math"

	"github.com/ducminhle1904/prediction-trader/internal/risk"
)

// Results is the structured snapshot of a finished run: final balances,
// the full trade ledger, the balance series, and the computed metrics.
// The engine hands it to the caller; persistence is the caller's concern.
type Results struct {
	StrategyName string `json:"strategy"`
	Instrument   string `json:"instrument"`

	StartBalance float64 `json:"start_balance"`
	EndBalance   float64 `json:"end_balance"`
	TotalPnL     float64 `json:"total_pnl"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	ProfitFactor  float64 `json:"-"` // may be +Inf; serialized by the reporting layer
	AvgTradePnL   float64 `json:"avg_trade_pnl"`

	// LowConfidence marks a result with fewer trades than the configured
	// significance threshold. Metrics are still computed.
	LowConfidence bool `json:"low_confidence"`
	// Incomplete marks a run aborted by a data-order error; the ledger
	// holds everything up to the abort.
	Incomplete bool `json:"incomplete"`

	Ledger        []*risk.Position    `json:"trades"`
	EquityCurve   []EquityPoint       `json:"equity_curve"`
	Risk          risk.Snapshot       `json:"risk"`
	BlockedTrades []risk.BlockedTrade `json:"blocked_trades,omitempty"`
}

// ComputeMetrics fills every derived metric from the ledger and equity
// curve. Zero-trade runs produce zeroed metrics, never a division by zero.
func (r *Results) ComputeMetrics(minTrades int, tradesPerYear float64) {
	r.TotalTrades = len(r.Ledger)
	r.LowConfidence = r.TotalTrades < minTrades

	wins := 0
	totalPnL := 0.0
	for _, p := range r.Ledger {
		totalPnL += p.RealizedPnL
		if p.RealizedPnL > 0 {
			wins++
		}
	}
	r.TotalPnL = totalPnL
	r.WinningTrades = wins
	r.LosingTrades = r.TotalTrades - wins

	if r.TotalTrades > 0 {
		r.WinRate = float64(wins) / float64(r.TotalTrades)
		r.AvgTradePnL = totalPnL / float64(r.TotalTrades)
	} else {
		r.WinRate = 0
		r.AvgTradePnL = 0
	}

	r.MaxDrawdown = r.calculateMaxDrawdown()
	r.SharpeRatio = r.calculateSharpeRatio(tradesPerYear)
	r.ProfitFactor = r.calculateProfitFactor()
}

// calculateMaxDrawdown walks the balance series and returns the largest
// relative decline from the running peak.
func (r *Results) calculateMaxDrawdown() float64 {
	peak := r.StartBalance
	maxDD := 0.0
	for _, point := range r.EquityCurve {
		if point.Balance > peak {
			peak = point.Balance
		}
		if peak > 0 {
			dd := (peak - point.Balance) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// calculateSharpeRatio computes the annualized Sharpe ratio over per-trade
// returns (pnl relative to committed capital). Fewer than two trades or
// zero variance yields 0.
func (r *Results) calculateSharpeRatio(tradesPerYear float64) float64 {
	var returns []float64
	for _, p := range r.Ledger {
		notional := p.Notional()
		if notional > 0 {
			returns = append(returns, p.RealizedPnL/notional)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	avgReturn := 0.0
	for _, ret := range returns {
		avgReturn += ret
	}
	avgReturn /= float64(len(returns))

	variance := 0.0
	for _, ret := range returns {
		variance += (ret - avgReturn) * (ret - avgReturn)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}

	return avgReturn / stdDev * math.Sqrt(tradesPerYear)
}

// calculateProfitFactor returns gross profit over gross loss. A run with
// profits and no losing trades reports +Inf as an explicit sentinel.
func (r *Results) calculateProfitFactor() float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, p := range r.Ledger {
		if p.RealizedPnL > 0 {
			grossProfit += p.RealizedPnL
		} else {
			grossLoss += math.Abs(p.RealizedPnL)
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}
