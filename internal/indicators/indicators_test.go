package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRSI_Range tests that RSI stays within [0, 100]
func TestRSI_Range(t *testing.T) {
	rsi := NewRSI(14)

	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100.0 + float64(i%5)
	}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, 0.0)
	assert.LessOrEqual(t, value, 100.0)
}

// TestRSI_AllGains tests the no-loss branch returning 100
func TestRSI_AllGains(t *testing.T) {
	rsi := NewRSI(14)

	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100.0 + float64(i)
	}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.Equal(t, 100.0, value)
}

// TestRSI_BalancedMoves tests the symmetric case around 50
func TestRSI_BalancedMoves(t *testing.T) {
	rsi := NewRSI(14)

	prices := make([]float64, 20)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 100
		} else {
			prices[i] = 101
		}
	}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-9)
}

// TestRSI_InsufficientData tests the minimum-window error
func TestRSI_InsufficientData(t *testing.T) {
	rsi := NewRSI(14)

	_, err := rsi.Calculate([]float64{100, 101, 102})
	assert.Error(t, err)
}

// TestMomentum_Calculate tests the relative change over the lookback
func TestMomentum_Calculate(t *testing.T) {
	m := NewMomentum(3)

	value, err := m.Calculate([]float64{100, 101, 102, 110})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, value, 1e-9)

	value, err = m.Calculate([]float64{100, 99, 98, 90})
	require.NoError(t, err)
	assert.InDelta(t, -0.10, value, 1e-9)
}

// TestMomentum_InsufficientData tests the minimum-window error
func TestMomentum_InsufficientData(t *testing.T) {
	m := NewMomentum(3)

	_, err := m.Calculate([]float64{100, 101, 102})
	assert.Error(t, err)
}

// TestMomentum_UsesLookbackOnly tests that older prices are ignored
func TestMomentum_UsesLookbackOnly(t *testing.T) {
	m := NewMomentum(2)

	// Only the last three values matter: 200 -> 220
	value, err := m.Calculate([]float64{5, 9, 200, 210, 220})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, value, 1e-9)
}
