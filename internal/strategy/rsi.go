package strategy

import (
	"github.com/ducminhle1904/prediction-trader/internal/indicators"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

const (
	DefaultRSIPeriod     = 14
	DefaultRSIOversold   = 30.0
	DefaultRSIOverbought = 70.0
)

// RSIStrategy is a mean-reversion strategy: oversold markets vote YES,
// overbought markets vote NO.
type RSIStrategy struct {
	rsi  *indicators.RSI
	low  float64
	high float64
}

// NewRSIStrategy creates an RSI reversion strategy with default thresholds
func NewRSIStrategy() *RSIStrategy {
	return NewRSIStrategyWithThresholds(DefaultRSIOversold, DefaultRSIOverbought)
}

// NewRSIStrategyWithThresholds creates an RSI reversion strategy with
// custom oversold/overbought thresholds
func NewRSIStrategyWithThresholds(low, high float64) *RSIStrategy {
	return &RSIStrategy{
		rsi:  indicators.NewRSI(DefaultRSIPeriod),
		low:  low,
		high: high,
	}
}

// GetName returns the name of the strategy
func (s *RSIStrategy) GetName() string {
	return "rsi_reversion"
}

// Evaluate returns YES below the oversold threshold, NO above the
// overbought threshold, SKIP in between
func (s *RSIStrategy) Evaluate(data []types.OHLCV) (Signal, error) {
	rsi, err := s.rsi.Calculate(closes(data))
	if err != nil {
		return SignalSkip, err
	}

	if rsi < s.low {
		return SignalYes, nil
	}
	if rsi > s.high {
		return SignalNo, nil
	}
	return SignalSkip, nil
}
