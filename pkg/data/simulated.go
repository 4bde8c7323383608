package data

import (
	"math/rand"
	"time"

	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// Simulator generates a random-walk bar stream for paper-trading sessions
// when no live feed is wired in. Randomness lives here, outside the engine,
// so a fixed seed reproduces the full session.
type Simulator struct {
	rng      *rand.Rand
	price    float64
	interval time.Duration
	next     time.Time
}

// NewSimulator creates a random-walk generator starting at the given price
func NewSimulator(seed int64, startPrice float64, start time.Time, interval time.Duration) *Simulator {
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)),
		price:    startPrice,
		interval: interval,
		next:     start,
	}
}

// NextBar produces the next bar of the walk
func (s *Simulator) NextBar() types.OHLCV {
	const volatility = 0.01

	open := s.price
	drift := (s.rng.Float64() - 0.5) * open * volatility
	closePrice := open + drift
	if closePrice < open*0.5 {
		closePrice = open * 0.5
	}

	high := maxFloat(open, closePrice) * (1 + s.rng.Float64()*volatility*0.5)
	low := minFloat(open, closePrice) * (1 - s.rng.Float64()*volatility*0.5)

	bar := types.OHLCV{
		Timestamp: s.next,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    s.rng.Float64() * 1000000,
	}

	s.price = closePrice
	s.next = s.next.Add(s.interval)
	return bar
}

// GenerateBars produces n consecutive bars
func (s *Simulator) GenerateBars(n int) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	for i := range bars {
		bars[i] = s.NextBar()
	}
	return bars
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
