package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestCSVProvider_LoadData tests loading a well-formed file
func TestCSVProvider_LoadData(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100,101,99,100.5,1200
2024-06-01 01:00:00,100.5,102,100,101.5,1500
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadData(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 1500.0, bars[1].Volume)
	assert.True(t, bars[1].Timestamp.After(bars[0].Timestamp))
}

// TestCSVProvider_UnixTimestamps tests second and millisecond epochs
func TestCSVProvider_UnixTimestamps(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1717200000,100,101,99,100.5,1200
1717203600000,100.5,102,100,101.5,1500
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadData(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Unix(1717200000, 0).UTC(), bars[0].Timestamp)
	assert.Equal(t, time.UnixMilli(1717203600000).UTC(), bars[1].Timestamp)
}

// TestCSVProvider_SkipsBadRows tests that malformed rows are skipped
// instead of failing the whole load
func TestCSVProvider_SkipsBadRows(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100,101,99,100.5,1200
2024-06-01 01:00:00,not-a-number,102,100,101.5,1500
2024-06-01 02:00:00,100,99,101,100.5,1200
2024-06-01 03:00:00,101,102,100,101.5,1500
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadData(path)
	require.NoError(t, err)
	// Bad open and inverted high/low rows are dropped
	assert.Len(t, bars, 2)
}

// TestCSVProvider_MissingFile tests the open error path
func TestCSVProvider_MissingFile(t *testing.T) {
	provider := NewCSVProvider()
	_, err := provider.LoadData("does/not/exist.csv")
	assert.Error(t, err)
}

// TestValidateData tests the integrity checks
func TestValidateData(t *testing.T) {
	provider := NewCSVProvider()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	good := []types.OHLCV{
		{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Timestamp: start.Add(time.Hour), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1},
	}
	assert.NoError(t, provider.ValidateData(good))

	assert.Error(t, provider.ValidateData(nil))

	inverted := []types.OHLCV{
		{Timestamp: start, Open: 100, High: 98, Low: 99, Close: 100, Volume: 1},
	}
	assert.Error(t, provider.ValidateData(inverted))

	outOfOrder := []types.OHLCV{
		{Timestamp: start.Add(time.Hour), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
	}
	assert.Error(t, provider.ValidateData(outOfOrder))
}

// TestCachedProvider_ServesFromCache tests that the second load skips disk
func TestCachedProvider_ServesFromCache(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100,101,99,100.5,1200
`)

	cached := NewCachedProvider(NewCSVProvider())

	first, err := cached.LoadData(path)
	require.NoError(t, err)

	// Remove the backing file; a cache hit must still succeed
	require.NoError(t, os.Remove(path))

	second, err := cached.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestMemoryCache_CopiesData tests that cached slices are isolated from
// caller mutation
func TestMemoryCache_CopiesData(t *testing.T) {
	cache := NewMemoryCache()
	original := []types.OHLCV{{Open: 100, High: 101, Low: 99, Close: 100}}

	cache.Set("key", original)
	original[0].Close = 999

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 100.0, got[0].Close)

	assert.Equal(t, 1, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
	_, ok = cache.Get("key")
	assert.False(t, ok)
}

// TestSimulator_Deterministic tests that a fixed seed reproduces the walk
func TestSimulator_Deterministic(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	a := NewSimulator(42, 100.0, start, time.Minute).GenerateBars(50)
	b := NewSimulator(42, 100.0, start, time.Minute).GenerateBars(50)
	assert.Equal(t, a, b)

	c := NewSimulator(43, 100.0, start, time.Minute).GenerateBars(50)
	assert.NotEqual(t, a, c)
}

// TestSimulator_ProducesValidBars tests that generated bars pass validation
func TestSimulator_ProducesValidBars(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := NewSimulator(7, 100.0, start, time.Minute).GenerateBars(200)

	provider := NewCSVProvider()
	assert.NoError(t, provider.ValidateData(bars))

	for i := 1; i < len(bars); i++ {
		assert.Equal(t, time.Minute, bars[i].Timestamp.Sub(bars[i-1].Timestamp))
	}
}
