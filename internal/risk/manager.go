package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/prediction-trader/internal/config"
	engerrors "github.com/ducminhle1904/prediction-trader/internal/errors"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// exposureTolerance absorbs float64 rounding when comparing exposure
// against the configured limit.
const exposureTolerance = 1e-9

// Manager is the gatekeeper for all position activity. It sizes candidate
// positions, approves or rejects trade requests, derives stop/take-profit
// levels, and is the only component that mutates the risk state.
//
// A Manager belongs to exactly one simulation run. Independent runs use
// independent Manager instances and share nothing.
type Manager struct {
	cfg *config.Config

	balance      float64
	peakBalance  float64
	maxDrawdown  float64
	dailyPnL     float64
	openExposure float64
	level        RiskLevel
	seq          int

	blocked []BlockedTrade
}

// NewManager creates a risk manager seeded with the configured initial
// balance. The config must already be validated.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:         cfg,
		balance:     cfg.InitialBalance,
		peakBalance: cfg.InitialBalance,
		level:       LevelGreen,
	}
}

// CalculatePositionSize returns the number of units to trade at the given
// price. The base size commits max_position_size_pct of the balance and is
// scaled down by the current risk level (RED blocks sizing entirely). The
// result is floor-clamped to the minimum tradable unit; 0 means no trade.
func (m *Manager) CalculatePositionSize(price float64) float64 {
	if !isFinite(price) || price <= 0 {
		return 0
	}

	base := m.cfg.MaxPositionSizePct * m.balance / price
	size := base * m.level.Multiplier()

	size = math.Floor(size/m.cfg.MinTradeSize) * m.cfg.MinTradeSize
	if size < m.cfg.MinTradeSize {
		return 0
	}
	return size
}

// ValidateTrade decides whether a candidate trade may be opened.
// A rejection is a normal outcome, reported with a reason and recorded in
// the blocked-trade log; it is never an error. openCount is the number of
// currently open positions.
func (m *Manager) ValidateTrade(instrument string, side Side, price, size float64, openCount int, now time.Time) (bool, string) {
	reject := func(reason string) (bool, string) {
		m.blocked = append(m.blocked, BlockedTrade{
			Instrument: instrument,
			Side:       side,
			Reason:     reason,
			Timestamp:  now,
		})
		return false, reason
	}

	if !isFinite(size) || size <= 0 {
		return reject("invalid size")
	}
	if !isFinite(price) || price <= 0 {
		return reject("invalid price")
	}
	if m.level == LevelRed {
		return reject("risk level RED - trading halted")
	}
	if m.cfg.MaxOpenPositions > 0 && openCount >= m.cfg.MaxOpenPositions {
		return reject(fmt.Sprintf("maximum open positions reached (%d)", m.cfg.MaxOpenPositions))
	}

	notional := price * size
	maxPosition := m.cfg.MaxPositionSizePct * m.balance
	if notional > maxPosition*(1+exposureTolerance) {
		return reject(fmt.Sprintf("position too large: %.2f > %.2f", notional, maxPosition))
	}

	maxExposure := m.cfg.MaxTotalExposurePct * m.balance
	if m.openExposure+notional > maxExposure*(1+exposureTolerance) {
		return reject(fmt.Sprintf("exposure limit: %.2f > %.2f", m.openExposure+notional, maxExposure))
	}

	if m.dailyPnL < -(m.cfg.DailyLossLimitPct * m.balance) {
		return reject(fmt.Sprintf("daily loss limit reached: %.2f", m.dailyPnL))
	}

	return true, ""
}

// OpenPosition creates a new OPEN position with stop-loss and take-profit
// levels derived from the configured percentages, and commits its notional
// to the open exposure. Only callable after ValidateTrade approved the
// request; a limit breach here is a logic defect, not a rejection.
func (m *Manager) OpenPosition(instrument string, side Side, price, size float64, ts time.Time) (*Position, error) {
	notional := price * size
	maxExposure := m.cfg.MaxTotalExposurePct * m.balance
	if m.openExposure+notional > maxExposure*(1+exposureTolerance) {
		return nil, engerrors.NewInvariantViolation("risk", "open_position",
			fmt.Sprintf("exposure %.4f would exceed limit %.4f despite validation", m.openExposure+notional, maxExposure))
	}

	var stopLoss, takeProfit float64
	if side == SideLong {
		stopLoss = price * (1 - m.cfg.StopLossPct)
		takeProfit = price * (1 + m.cfg.TakeProfitPct)
	} else {
		stopLoss = price * (1 + m.cfg.StopLossPct)
		takeProfit = price * (1 - m.cfg.TakeProfitPct)
	}

	// IDs derive from the open sequence and bar timestamp, never from an
	// entropy source, so identical runs emit identical ledgers.
	m.seq++
	id := uuid.NewSHA1(uuid.NameSpaceOID,
		fmt.Appendf(nil, "%s|%s|%d|%d", instrument, side, m.seq, ts.UnixNano()))

	p := &Position{
		ID:              id.String(),
		Instrument:      instrument,
		Side:            side,
		EntryPrice:      price,
		Size:            size,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
		OpenedAt:        ts,
	}

	m.openExposure += notional
	return p, nil
}

// CheckPositionExit returns the exit reason triggered by the bar, or
// ExitNone. Stop-loss is evaluated before take-profit, so a bar whose range
// crosses both levels closes at the stop (worst case first).
func (m *Manager) CheckPositionExit(p *Position, bar types.OHLCV) ExitReason {
	if p.IsClosed() {
		return ExitNone
	}

	if p.Side == SideLong {
		if bar.Low <= p.StopLossPrice {
			return ExitStopLoss
		}
		if bar.High >= p.TakeProfitPrice {
			return ExitTakeProfit
		}
	} else {
		if bar.High >= p.StopLossPrice {
			return ExitStopLoss
		}
		if bar.Low <= p.TakeProfitPrice {
			return ExitTakeProfit
		}
	}

	return ExitNone
}

// ClosePosition finalizes the position, realizes its PnL into the balance,
// and recomputes the risk level from the resulting drawdown. The balance
// only ever moves on close, never on mark-to-market.
func (m *Manager) ClosePosition(p *Position, exitPrice float64, reason ExitReason, ts time.Time) error {
	if p.IsClosed() {
		return engerrors.NewInvariantViolation("risk", "close_position",
			fmt.Sprintf("position %s already closed", p.ID))
	}

	fee := (p.EntryPrice + exitPrice) * p.Size * m.cfg.Commission
	pnl := (exitPrice-p.EntryPrice)*p.Size*p.Side.Sign() - fee

	p.ClosedAt = ts
	p.ExitPrice = exitPrice
	p.ExitReason = reason
	p.RealizedPnL = pnl
	p.Commission = fee

	m.balance += pnl
	m.dailyPnL += pnl
	if m.balance > m.peakBalance {
		m.peakBalance = m.balance
	}

	m.openExposure -= p.Notional()
	if m.openExposure < 0 {
		if m.openExposure < -exposureTolerance*m.peakBalance {
			return engerrors.NewInvariantViolation("risk", "close_position",
				fmt.Sprintf("open exposure went negative: %v", m.openExposure))
		}
		m.openExposure = 0
	}

	dd := m.currentDrawdown()
	if dd > m.maxDrawdown {
		m.maxDrawdown = dd
	}
	m.level = LevelForDrawdown(dd, m.cfg.MaxDrawdownPct)

	return nil
}

// ResetDaily clears the daily PnL counter at a simulated day boundary.
func (m *Manager) ResetDaily() {
	m.dailyPnL = 0
}

// LevelForDrawdown maps a drawdown fraction to a risk level. The level is
// a pure function of drawdown: at or above the configured maximum is RED,
// at or above half of it is YELLOW, anything below is GREEN.
func LevelForDrawdown(drawdown, maxDrawdownPct float64) RiskLevel {
	switch {
	case drawdown >= maxDrawdownPct:
		return LevelRed
	case drawdown >= maxDrawdownPct*0.5:
		return LevelYellow
	default:
		return LevelGreen
	}
}

func (m *Manager) currentDrawdown() float64 {
	if m.peakBalance <= 0 {
		return 0
	}
	return (m.peakBalance - m.balance) / m.peakBalance
}

// Level returns the current risk level.
func (m *Manager) Level() RiskLevel {
	return m.level
}

// Balance returns the current balance.
func (m *Manager) Balance() float64 {
	return m.balance
}

// OpenExposure returns the notional capital committed to open positions.
func (m *Manager) OpenExposure() float64 {
	return m.openExposure
}

// DailyPnL returns the realized PnL since the last day boundary.
func (m *Manager) DailyPnL() float64 {
	return m.dailyPnL
}

// Snapshot returns the current risk state.
func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		CurrentBalance:  m.balance,
		PeakBalance:     m.peakBalance,
		CurrentDrawdown: m.currentDrawdown(),
		MaxDrawdown:     m.maxDrawdown,
		DailyPnL:        m.dailyPnL,
		OpenExposure:    m.openExposure,
		RiskLevel:       m.level,
	}
}

// BlockedTrades returns a copy of the rejected-trade log.
func (m *Manager) BlockedTrades() []BlockedTrade {
	out := make([]BlockedTrade, len(m.blocked))
	copy(out, m.blocked)
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
