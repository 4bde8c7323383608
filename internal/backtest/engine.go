package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/prediction-trader/internal/config"
	engerrors "github.com/ducminhle1904/prediction-trader/internal/errors"
	"github.com/ducminhle1904/prediction-trader/internal/risk"
	"github.com/ducminhle1904/prediction-trader/internal/strategy"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// State of the simulation loop.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateHalted // risk level RED with halt_on_red: exits continue, no new entries
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateHalted:
		return "HALTED"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// BarSource supplies bars in ascending timestamp order. Next blocks until
// a bar is available, the source is exhausted (ok=false), or the context
// is cancelled.
type BarSource interface {
	Next(ctx context.Context) (bar types.OHLCV, ok bool, err error)
}

// SliceSource replays an in-memory bar slice.
type SliceSource struct {
	bars []types.OHLCV
	idx  int
}

// NewSliceSource creates a bar source over historical data
func NewSliceSource(bars []types.OHLCV) *SliceSource {
	return &SliceSource{bars: bars}
}

// Next returns the next bar from the slice
func (s *SliceSource) Next(ctx context.Context) (types.OHLCV, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.OHLCV{}, false, err
	}
	if s.idx >= len(s.bars) {
		return types.OHLCV{}, false, nil
	}
	bar := s.bars[s.idx]
	s.idx++
	return bar, true, nil
}

// EquityPoint is one point of the balance series, recorded per close event.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
}

// Engine drives one simulation run bar by bar: exit checks first, then the
// strategy's entry decision, with all risk state owned by this instance.
// Independent runs are fully isolated and can execute in parallel.
//
// The engine is deterministic: time comes only from bar timestamps, and an
// identical bar stream, strategy, and configuration reproduce the exact
// sequence of opens, closes, and metrics.
type Engine struct {
	cfg     *config.Config
	strat   strategy.Strategy
	manager *risk.Manager
	tracker *risk.Tracker

	state          State
	window         []types.OHLCV
	lastBar        types.OHLCV
	haveBar        bool
	dayKey         int
	haveDay        bool
	barsSeen       int
	opened         int
	runningBalance float64
	equity         []EquityPoint
}

// NewEngine validates the configuration and builds an engine for one run.
// A bad configuration aborts here, before any simulation step.
func NewEngine(cfg *config.Config, strat strategy.Strategy) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:            cfg,
		strat:          strat,
		manager:        risk.NewManager(cfg),
		tracker:        risk.NewTracker(),
		state:          StateIdle,
		runningBalance: cfg.InitialBalance,
	}, nil
}

// State returns the current simulation state.
func (e *Engine) State() State {
	return e.state
}

// Snapshot returns the current risk state.
func (e *Engine) Snapshot() risk.Snapshot {
	return e.manager.Snapshot()
}

// OpenPositions returns the currently open positions.
func (e *Engine) OpenPositions() []*risk.Position {
	return e.tracker.OpenPositions()
}

// Ledger returns the closed positions so far, oldest first.
func (e *Engine) Ledger() []*risk.Position {
	return e.tracker.Ledger()
}

// BlockedTrades returns the rejected trade requests so far.
func (e *Engine) BlockedTrades() []risk.BlockedTrade {
	return e.manager.BlockedTrades()
}

// Run consumes the bar source until it is exhausted, a configured limit is
// reached, or the context is cancelled. Cancellation is cooperative and
// checked between bars; it triggers the same forced closure as a normal
// end of stream, so the ledger and metrics stay consistent.
//
// On a data-order violation the partial results up to that point are still
// returned, marked incomplete, together with the error.
func (e *Engine) Run(ctx context.Context, src BarSource) (*Results, error) {
	e.state = StateRunning

	for e.state == StateRunning || e.state == StateHalted {
		if ctx.Err() != nil {
			break
		}

		bar, ok, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			results, ferr := e.finalize(true)
			if ferr != nil {
				return results, ferr
			}
			return results, engerrors.WrapError(err, engerrors.ErrorCategoryData, "engine", "next_bar")
		}
		if !ok {
			break
		}

		if err := e.step(bar); err != nil {
			results, ferr := e.finalize(true)
			if ferr != nil {
				return results, ferr
			}
			return results, err
		}
	}

	return e.finalize(false)
}

// step processes a single bar as one atomic unit: ordering check, day
// boundary, exit checks for every open position, then at most one entry.
func (e *Engine) step(bar types.OHLCV) error {
	if err := e.checkBar(bar); err != nil {
		return err
	}

	// Daily PnL resets when the bar crosses a day boundary in the
	// configured timezone.
	local := bar.Timestamp.In(e.cfg.Location())
	key := local.Year()*1000 + local.YearDay()
	if e.haveDay && key != e.dayKey {
		e.manager.ResetDaily()
	}
	e.dayKey = key
	e.haveDay = true

	// Closes before opens: exposure released this bar is visible to the
	// entry decision below.
	closedBefore := len(e.tracker.Ledger())
	if err := e.tracker.Advance(e.manager, bar); err != nil {
		return err
	}
	e.recordCloses(closedBefore)

	if e.cfg.HaltOnRed && e.state == StateRunning && e.manager.Level() == risk.LevelRed {
		e.state = StateHalted
	}

	e.pushWindow(bar)

	if e.state == StateRunning {
		if err := e.considerEntry(bar); err != nil {
			return err
		}
	}

	e.lastBar = bar
	e.haveBar = true
	e.barsSeen++

	if e.cfg.MaxBars > 0 && e.barsSeen >= e.cfg.MaxBars {
		e.state = StateDone
	}
	if e.cfg.MaxTrades > 0 && e.opened >= e.cfg.MaxTrades {
		e.state = StateDone
	}

	return nil
}

// considerEntry asks the strategy for a signal and opens a position when
// sizing and validation both approve. Rejections and strategy errors
// (e.g. a window still too short for its indicators) skip the bar.
func (e *Engine) considerEntry(bar types.OHLCV) error {
	sig, err := e.strat.Evaluate(e.window)
	if err != nil || sig == strategy.SignalSkip {
		return nil
	}
	if e.tracker.HasOpen(e.cfg.Instrument) {
		return nil
	}

	side := risk.SideLong
	if sig == strategy.SignalNo {
		side = risk.SideShort
	}

	price := bar.Close
	size := e.manager.CalculatePositionSize(price)
	if size == 0 {
		return nil
	}

	approved, _ := e.manager.ValidateTrade(e.cfg.Instrument, side, price, size, e.tracker.OpenCount(), bar.Timestamp)
	if !approved {
		return nil
	}

	p, err := e.manager.OpenPosition(e.cfg.Instrument, side, price, size, bar.Timestamp)
	if err != nil {
		// Post-validation exposure breach is a logic defect; abort loudly.
		return err
	}
	e.tracker.Track(p)
	e.opened++
	return nil
}

// checkBar fails fast on out-of-order or malformed bars.
func (e *Engine) checkBar(bar types.OHLCV) error {
	if e.haveBar && !bar.Timestamp.After(e.lastBar.Timestamp) {
		return engerrors.NewDataOrderError("check_bar",
			fmt.Sprintf("bar at %s is not after previous bar at %s",
				bar.Timestamp.Format(time.RFC3339), e.lastBar.Timestamp.Format(time.RFC3339)))
	}
	if bar.Timestamp.IsZero() {
		return engerrors.NewDataOrderError("check_bar", "bar has zero timestamp")
	}
	for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return engerrors.NewDataOrderError("check_bar",
				fmt.Sprintf("malformed bar at %s: non-positive or non-finite price", bar.Timestamp.Format(time.RFC3339)))
		}
	}
	if bar.High < bar.Low {
		return engerrors.NewDataOrderError("check_bar",
			fmt.Sprintf("malformed bar at %s: high %.8f below low %.8f", bar.Timestamp.Format(time.RFC3339), bar.High, bar.Low))
	}
	return nil
}

func (e *Engine) pushWindow(bar types.OHLCV) {
	e.window = append(e.window, bar)
	if len(e.window) > e.cfg.WindowSize {
		e.window = e.window[1:]
	}
}

// recordCloses appends one equity point per close event since the given
// ledger offset, replaying realized PnL so each point carries the balance
// immediately after that close.
func (e *Engine) recordCloses(from int) {
	ledger := e.tracker.Ledger()
	for _, p := range ledger[from:] {
		e.runningBalance += p.RealizedPnL
		e.equity = append(e.equity, EquityPoint{Timestamp: p.ClosedAt, Balance: e.runningBalance})
	}
}

// finalize force-closes anything still open at the last seen price, moves
// the engine to DONE, and aggregates results. Every open is matched with
// exactly one close.
func (e *Engine) finalize(incomplete bool) (*Results, error) {
	var closeErr error
	if e.haveBar && e.tracker.OpenCount() > 0 {
		closedBefore := len(e.tracker.Ledger())
		closeErr = e.tracker.CloseAll(e.manager, e.lastBar.Close, e.lastBar.Timestamp, risk.ExitManual)
		e.recordCloses(closedBefore)
	}
	e.state = StateDone

	results := &Results{
		StrategyName:  e.strat.GetName(),
		Instrument:    e.cfg.Instrument,
		StartBalance:  e.cfg.InitialBalance,
		EndBalance:    e.manager.Balance(),
		Ledger:        e.tracker.Ledger(),
		EquityCurve:   e.equity,
		Risk:          e.manager.Snapshot(),
		BlockedTrades: e.manager.BlockedTrades(),
		Incomplete:    incomplete,
	}
	results.ComputeMetrics(e.cfg.MinTradesForSignificance, e.cfg.TradesPerYear)

	return results, closeErr
}
