package strategy

import (
	"github.com/ducminhle1904/prediction-trader/internal/indicators"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

const DefaultMomentumPeriod = 3

// BaselineStrategy trades simple momentum direction: rising prices vote
// YES, falling prices vote NO, flat prices skip.
type BaselineStrategy struct {
	momentum *indicators.Momentum
}

// NewBaselineStrategy creates a baseline momentum strategy
func NewBaselineStrategy() *BaselineStrategy {
	return &BaselineStrategy{
		momentum: indicators.NewMomentum(DefaultMomentumPeriod),
	}
}

// GetName returns the name of the strategy
func (s *BaselineStrategy) GetName() string {
	return "baseline_direction"
}

// Evaluate returns YES on positive momentum, NO on negative, SKIP on flat
func (s *BaselineStrategy) Evaluate(data []types.OHLCV) (Signal, error) {
	m, err := s.momentum.Calculate(closes(data))
	if err != nil {
		return SignalSkip, err
	}

	if m > 0 {
		return SignalYes, nil
	}
	if m < 0 {
		return SignalNo, nil
	}
	return SignalSkip, nil
}
