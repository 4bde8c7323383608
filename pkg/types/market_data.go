package types

import "time"

// OHLCV is a single market bar: the prices and volume observed over one
// interval, stamped with the bar's start time.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}
