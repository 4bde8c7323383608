package indicators

import "errors"

// Momentum measures the relative price change over a lookback period.
type Momentum struct {
	period int
}

// NewMomentum creates a new Momentum instance with the given lookback
func NewMomentum(period int) *Momentum {
	return &Momentum{period: period}
}

// GetName returns the name of the indicator
func (m *Momentum) GetName() string {
	return "Momentum"
}

// Calculate returns (close_now - close_then) / close_then over the lookback
func (m *Momentum) Calculate(prices []float64) (float64, error) {
	if len(prices) < m.period+1 {
		return 0, errors.New("insufficient data for momentum calculation")
	}

	then := prices[len(prices)-1-m.period]
	now := prices[len(prices)-1]
	if then == 0 {
		return 0, errors.New("zero reference price in momentum calculation")
	}

	return (now - then) / then, nil
}
