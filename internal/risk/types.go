package risk

import "time"

// Side represents the direction of a position. A YES signal opens a long
// position, a NO signal opens a short.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Sign returns the direction multiplier used for PnL calculations.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1.0
	}
	return 1.0
}

// RiskLevel gates position sizing and new entries.
type RiskLevel string

const (
	LevelGreen  RiskLevel = "green"  // low risk, normal operation
	LevelYellow RiskLevel = "yellow" // elevated risk, reduced sizing
	LevelRed    RiskLevel = "red"    // excessive risk, no new entries
)

// Multiplier returns the sizing scale factor for the risk level.
func (l RiskLevel) Multiplier() float64 {
	switch l {
	case LevelYellow:
		return 0.5
	case LevelRed:
		return 0.0
	default:
		return 1.0
	}
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitManual     ExitReason = "MANUAL"
	ExitTimeout    ExitReason = "TIMEOUT"
)

// Position is a single open or closed trade. Stop and take-profit levels
// are fixed at open time. A closed position is immutable: ClosedAt is set
// iff ExitPrice is set.
type Position struct {
	ID              string     `json:"id"`
	Instrument      string     `json:"instrument"`
	Side            Side       `json:"side"`
	EntryPrice      float64    `json:"entry_price"`
	Size            float64    `json:"size"`
	StopLossPrice   float64    `json:"stop_loss_price"`
	TakeProfitPrice float64    `json:"take_profit_price"`
	OpenedAt        time.Time  `json:"opened_at"`
	ClosedAt        time.Time  `json:"closed_at,omitzero"`
	ExitPrice       float64    `json:"exit_price,omitempty"`
	ExitReason      ExitReason `json:"exit_reason,omitempty"`
	RealizedPnL     float64    `json:"realized_pnl"`
	Commission      float64    `json:"commission"`
}

// IsClosed reports whether the position has been finalized.
func (p *Position) IsClosed() bool {
	return !p.ClosedAt.IsZero()
}

// Notional returns the capital committed at entry.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Size
}

// Snapshot is a read-only view of the current risk state.
type Snapshot struct {
	CurrentBalance  float64   `json:"current_balance"`
	PeakBalance     float64   `json:"peak_balance"`
	CurrentDrawdown float64   `json:"current_drawdown"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	DailyPnL        float64   `json:"daily_pnl"`
	OpenExposure    float64   `json:"open_exposure"`
	RiskLevel       RiskLevel `json:"risk_level"`
}

// BlockedTrade records a trade request the risk manager rejected.
type BlockedTrade struct {
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}
