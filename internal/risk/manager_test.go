package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/prediction-trader/internal/config"
	engerrors "github.com/ducminhle1904/prediction-trader/internal/errors"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Instrument:          "BTCUSDT",
		InitialBalance:      1000.0,
		Commission:          0.0,
		MaxPositionSizePct:  0.10,
		StopLossPct:         0.05,
		TakeProfitPct:       0.10,
		MaxDrawdownPct:      0.20,
		DailyLossLimitPct:   0.05,
		MaxTotalExposurePct: 0.15,
		MinTradeSize:        0.0001,
	}
}

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// TestCalculatePositionSize_Green tests base sizing at full risk budget
func TestCalculatePositionSize_Green(t *testing.T) {
	m := NewManager(testConfig())

	// 10% of 1000 at price 100 = 1.0 unit
	size := m.CalculatePositionSize(100.0)
	assert.InDelta(t, 1.0, size, 1e-9)
}

// TestCalculatePositionSize_MinClamp tests that sub-minimum sizes become zero
func TestCalculatePositionSize_MinClamp(t *testing.T) {
	cfg := testConfig()
	cfg.MinTradeSize = 10.0 // far above what the budget allows
	m := NewManager(cfg)

	size := m.CalculatePositionSize(100.0)
	assert.Equal(t, 0.0, size)
}

// TestCalculatePositionSize_InvalidPrice tests sizing with bad inputs
func TestCalculatePositionSize_InvalidPrice(t *testing.T) {
	m := NewManager(testConfig())

	assert.Equal(t, 0.0, m.CalculatePositionSize(0))
	assert.Equal(t, 0.0, m.CalculatePositionSize(-5))
}

// TestValidateTrade_Approved tests a trade within every limit
func TestValidateTrade_Approved(t *testing.T) {
	m := NewManager(testConfig())

	approved, reason := m.ValidateTrade("BTCUSDT", SideLong, 100.0, 1.0, 0, testTime)
	assert.True(t, approved)
	assert.Empty(t, reason)
	assert.Empty(t, m.BlockedTrades())
}

// TestValidateTrade_ExposureLimit tests rejection when total exposure would
// exceed the configured cap
func TestValidateTrade_ExposureLimit(t *testing.T) {
	m := NewManager(testConfig())

	// Commit 100 of the 150 exposure budget
	_, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)

	// Another 100 notional would push exposure to 200 > 150
	approved, reason := m.ValidateTrade("ETHUSDT", SideLong, 100.0, 1.0, 1, testTime)
	assert.False(t, approved)
	assert.Contains(t, reason, "exposure limit")

	blocked := m.BlockedTrades()
	require.Len(t, blocked, 1)
	assert.Equal(t, "ETHUSDT", blocked[0].Instrument)
	assert.Contains(t, blocked[0].Reason, "exposure limit")
}

// TestValidateTrade_PositionTooLarge tests the per-position notional cap
func TestValidateTrade_PositionTooLarge(t *testing.T) {
	m := NewManager(testConfig())

	approved, reason := m.ValidateTrade("BTCUSDT", SideLong, 100.0, 2.0, 0, testTime)
	assert.False(t, approved)
	assert.Contains(t, reason, "position too large")
}

// TestValidateTrade_MaxOpenPositions tests the open-position cap
func TestValidateTrade_MaxOpenPositions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOpenPositions = 1
	m := NewManager(cfg)

	approved, reason := m.ValidateTrade("BTCUSDT", SideLong, 100.0, 0.5, 1, testTime)
	assert.False(t, approved)
	assert.Contains(t, reason, "maximum open positions")
}

// TestValidateTrade_InvalidInputs tests rejection of malformed requests
func TestValidateTrade_InvalidInputs(t *testing.T) {
	m := NewManager(testConfig())

	approved, reason := m.ValidateTrade("BTCUSDT", SideLong, 100.0, 0, 0, testTime)
	assert.False(t, approved)
	assert.Equal(t, "invalid size", reason)

	approved, reason = m.ValidateTrade("BTCUSDT", SideLong, -1.0, 1.0, 0, testTime)
	assert.False(t, approved)
	assert.Equal(t, "invalid price", reason)
}

// TestValidateTrade_DailyLossLimit tests that entries stop after the daily
// loss limit is breached and resume after the daily reset
func TestValidateTrade_DailyLossLimit(t *testing.T) {
	m := NewManager(testConfig())

	// Realize a loss beyond 5% of balance
	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 40.0, ExitStopLoss, testTime))
	require.Less(t, m.DailyPnL(), -m.cfg.DailyLossLimitPct*m.Balance())

	// RED from the drawdown would also block, so verify the daily limit on
	// a manager where the drawdown stays green
	cfg := testConfig()
	cfg.MaxDrawdownPct = 0.99
	m2 := NewManager(cfg)
	p2, err := m2.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m2.ClosePosition(p2, 40.0, ExitStopLoss, testTime))
	require.Equal(t, LevelGreen, m2.Level())

	approved, reason := m2.ValidateTrade("BTCUSDT", SideLong, 50.0, 0.5, 0, testTime)
	assert.False(t, approved)
	assert.Contains(t, reason, "daily loss limit")

	m2.ResetDaily()
	approved, _ = m2.ValidateTrade("BTCUSDT", SideLong, 50.0, 0.5, 0, testTime)
	assert.True(t, approved)
}

// TestOpenPosition_StopAndTargetLevels tests derived exit levels per side
func TestOpenPosition_StopAndTargetLevels(t *testing.T) {
	m := NewManager(testConfig())

	long, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 0.5, testTime)
	require.NoError(t, err)
	assert.InDelta(t, 95.0, long.StopLossPrice, 1e-9)
	assert.InDelta(t, 110.0, long.TakeProfitPrice, 1e-9)
	assert.NotEmpty(t, long.ID)
	assert.False(t, long.IsClosed())

	short, err := m.OpenPosition("ETHUSDT", SideShort, 100.0, 0.5, testTime)
	require.NoError(t, err)
	assert.InDelta(t, 105.0, short.StopLossPrice, 1e-9)
	assert.InDelta(t, 90.0, short.TakeProfitPrice, 1e-9)
}

// TestOpenPosition_DeterministicIDs tests that position IDs are a pure
// function of the open sequence, with no entropy source involved
func TestOpenPosition_DeterministicIDs(t *testing.T) {
	open := func() []string {
		cfg := testConfig()
		cfg.MaxTotalExposurePct = 1.0
		m := NewManager(cfg)

		p1, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 0.5, testTime)
		require.NoError(t, err)
		p2, err := m.OpenPosition("ETHUSDT", SideShort, 50.0, 1.0, testTime.Add(time.Hour))
		require.NoError(t, err)
		return []string{p1.ID, p2.ID}
	}

	first := open()
	second := open()
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0], first[1])
}

// TestCheckPositionExit_StopBeforeTarget tests stop-loss precedence when a
// single bar crosses both levels
func TestCheckPositionExit_StopBeforeTarget(t *testing.T) {
	m := NewManager(testConfig())
	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)

	bar := types.OHLCV{Open: 100, High: 115, Low: 90, Close: 100, Timestamp: testTime}
	assert.Equal(t, ExitStopLoss, m.CheckPositionExit(p, bar))
}

// TestCheckPositionExit_Short tests mirrored exit checks for short positions
func TestCheckPositionExit_Short(t *testing.T) {
	m := NewManager(testConfig())
	p, err := m.OpenPosition("BTCUSDT", SideShort, 100.0, 1.0, testTime)
	require.NoError(t, err)

	// High touches the short stop at 105
	stopBar := types.OHLCV{Open: 100, High: 106, Low: 99, Close: 100, Timestamp: testTime}
	assert.Equal(t, ExitStopLoss, m.CheckPositionExit(p, stopBar))

	// Low touches the short target at 90
	tpBar := types.OHLCV{Open: 95, High: 96, Low: 89, Close: 91, Timestamp: testTime}
	assert.Equal(t, ExitTakeProfit, m.CheckPositionExit(p, tpBar))
}

// TestCheckPositionExit_NoTrigger tests a bar that crosses neither level
func TestCheckPositionExit_NoTrigger(t *testing.T) {
	m := NewManager(testConfig())
	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)

	bar := types.OHLCV{Open: 100, High: 104, Low: 97, Close: 101, Timestamp: testTime}
	assert.Equal(t, ExitNone, m.CheckPositionExit(p, bar))
}

// TestClosePosition_StopLossScenario tests the canonical stop-out: entry at
// 100, stop at 95, fill at the stop for a -5 realized loss
func TestClosePosition_StopLossScenario(t *testing.T) {
	m := NewManager(testConfig())

	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, m.OpenExposure(), 1e-9)

	require.NoError(t, m.ClosePosition(p, p.StopLossPrice, ExitStopLoss, testTime))

	assert.InDelta(t, -5.0, p.RealizedPnL, 1e-9)
	assert.InDelta(t, 995.0, m.Balance(), 1e-9)
	assert.InDelta(t, 0.0, m.OpenExposure(), 1e-9)
	assert.Equal(t, ExitStopLoss, p.ExitReason)
	assert.True(t, p.IsClosed())
}

// TestClosePosition_Commission tests that fees are charged on entry and
// exit notional
func TestClosePosition_Commission(t *testing.T) {
	cfg := testConfig()
	cfg.Commission = 0.001
	m := NewManager(cfg)

	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 110.0, ExitTakeProfit, testTime))

	// pnl = 10 - (100+110)*1*0.001 = 9.79
	assert.InDelta(t, 0.21, p.Commission, 1e-9)
	assert.InDelta(t, 9.79, p.RealizedPnL, 1e-9)
}

// TestClosePosition_ShortPnL tests PnL sign for short positions
func TestClosePosition_ShortPnL(t *testing.T) {
	m := NewManager(testConfig())

	p, err := m.OpenPosition("BTCUSDT", SideShort, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 90.0, ExitTakeProfit, testTime))

	assert.InDelta(t, 10.0, p.RealizedPnL, 1e-9)
	assert.InDelta(t, 1010.0, m.Balance(), 1e-9)
}

// TestClosePosition_DoubleClose tests that closing twice is an invariant
// violation and leaves the state untouched
func TestClosePosition_DoubleClose(t *testing.T) {
	m := NewManager(testConfig())

	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 95.0, ExitStopLoss, testTime))

	balanceAfter := m.Balance()
	err = m.ClosePosition(p, 95.0, ExitStopLoss, testTime)
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.ErrorCategoryInvariant))
	assert.Equal(t, balanceAfter, m.Balance())
}

// TestLevelForDrawdown tests the pure drawdown-to-level mapping
func TestLevelForDrawdown(t *testing.T) {
	assert.Equal(t, LevelGreen, LevelForDrawdown(0.05, 0.20))
	assert.Equal(t, LevelYellow, LevelForDrawdown(0.10, 0.20))
	assert.Equal(t, LevelYellow, LevelForDrawdown(0.15, 0.20))
	assert.Equal(t, LevelRed, LevelForDrawdown(0.20, 0.20))
	assert.Equal(t, LevelRed, LevelForDrawdown(0.25, 0.20))
}

// TestRiskLevel_TransitionsAfterLosses tests that realized losses move the
// level through YELLOW to RED and that RED blocks sizing and validation
func TestRiskLevel_TransitionsAfterLosses(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTotalExposurePct = 1.0
	cfg.MaxPositionSizePct = 1.0
	m := NewManager(cfg)

	// Lose 25% of the balance in one trade: drawdown 0.25 >= 0.20 => RED
	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 2.5, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 0.0, ExitStopLoss, testTime))

	assert.Equal(t, LevelRed, m.Level())
	assert.Equal(t, 0.0, m.CalculatePositionSize(100.0))

	approved, reason := m.ValidateTrade("BTCUSDT", SideLong, 100.0, 1.0, 0, testTime)
	assert.False(t, approved)
	assert.Contains(t, reason, "RED")
}

// TestRiskLevel_YellowHalvesSizing tests the 0.5 sizing multiplier
func TestRiskLevel_YellowHalvesSizing(t *testing.T) {
	cfg := testConfig()
	m := NewManager(cfg)

	// Lose 10% => drawdown 0.10 >= 0.20/2 => YELLOW
	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 0.0, ExitStopLoss, testTime))
	require.Equal(t, LevelYellow, m.Level())

	// Base would be 0.10*900/100 = 0.9; yellow halves it to 0.45
	size := m.CalculatePositionSize(100.0)
	assert.InDelta(t, 0.45, size, 1e-6)
}

// TestSnapshot tests the read-only state view
func TestSnapshot(t *testing.T) {
	m := NewManager(testConfig())

	p, err := m.OpenPosition("BTCUSDT", SideLong, 100.0, 1.0, testTime)
	require.NoError(t, err)
	require.NoError(t, m.ClosePosition(p, 95.0, ExitStopLoss, testTime))

	snap := m.Snapshot()
	assert.InDelta(t, 995.0, snap.CurrentBalance, 1e-9)
	assert.InDelta(t, 1000.0, snap.PeakBalance, 1e-9)
	assert.InDelta(t, 0.005, snap.CurrentDrawdown, 1e-9)
	assert.InDelta(t, 0.005, snap.MaxDrawdown, 1e-9)
	assert.InDelta(t, -5.0, snap.DailyPnL, 1e-9)
	assert.Equal(t, LevelGreen, snap.RiskLevel)
}
