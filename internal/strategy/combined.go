package strategy

import (
	"github.com/ducminhle1904/prediction-trader/internal/indicators"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// CombinedStrategy requires RSI and momentum to agree before signaling:
// oversold plus downward pressure votes YES (reversion entry), overbought
// plus upward pressure votes NO.
type CombinedStrategy struct {
	rsi      *indicators.RSI
	momentum *indicators.Momentum
	rsiLow   float64
	rsiHigh  float64
}

// NewCombinedStrategy creates a combined RSI + momentum strategy
func NewCombinedStrategy() *CombinedStrategy {
	return &CombinedStrategy{
		rsi:      indicators.NewRSI(DefaultRSIPeriod),
		momentum: indicators.NewMomentum(DefaultMomentumPeriod),
		rsiLow:   DefaultRSIOversold,
		rsiHigh:  DefaultRSIOverbought,
	}
}

// GetName returns the name of the strategy
func (s *CombinedStrategy) GetName() string {
	return "combined_rsi_momentum"
}

// Evaluate signals only when both indicators agree
func (s *CombinedStrategy) Evaluate(data []types.OHLCV) (Signal, error) {
	prices := closes(data)

	rsi, err := s.rsi.Calculate(prices)
	if err != nil {
		return SignalSkip, err
	}
	momentum, err := s.momentum.Calculate(prices)
	if err != nil {
		return SignalSkip, err
	}

	if rsi < s.rsiLow && momentum < 0 {
		return SignalYes, nil
	}
	if rsi > s.rsiHigh && momentum > 0 {
		return SignalNo, nil
	}

	return SignalSkip, nil
}
