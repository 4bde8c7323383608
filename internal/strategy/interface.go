package strategy

import (
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// Signal is the directional recommendation a strategy produces for the
// current bar. YES opens a long-equivalent position, NO a short-equivalent,
// SKIP takes no action.
type Signal int

const (
	SignalSkip Signal = iota
	SignalYes
	SignalNo
)

func (s Signal) String() string {
	switch s {
	case SignalYes:
		return "YES"
	case SignalNo:
		return "NO"
	case SignalSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// Strategy defines the interface for trading strategies. Evaluate is a
// pure function of the supplied window (oldest first, current bar last);
// it never mutates engine state.
type Strategy interface {
	// Evaluate analyzes the data window and returns a directional signal
	Evaluate(data []types.OHLCV) (Signal, error)

	// GetName returns the name of the strategy
	GetName() string
}

func closes(data []types.OHLCV) []float64 {
	prices := make([]float64, len(data))
	for i, bar := range data {
		prices[i] = bar.Close
	}
	return prices
}
