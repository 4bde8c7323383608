package risk

import (
	"time"

	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// Tracker owns the set of currently open positions and the append-only
// ledger of closed ones. Open positions are kept in open order so exit
// processing is deterministic.
type Tracker struct {
	open         []*Position
	byInstrument map[string]*Position
	ledger       []*Position
}

// NewTracker creates an empty position tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byInstrument: make(map[string]*Position),
	}
}

// Track registers a freshly opened position.
func (t *Tracker) Track(p *Position) {
	t.open = append(t.open, p)
	t.byInstrument[p.Instrument] = p
}

// HasOpen reports whether an open position exists for the instrument.
func (t *Tracker) HasOpen(instrument string) bool {
	_, ok := t.byInstrument[instrument]
	return ok
}

// OpenCount returns the number of open positions.
func (t *Tracker) OpenCount() int {
	return len(t.open)
}

// OpenPositions returns a copy of the open set in open order.
func (t *Tracker) OpenPositions() []*Position {
	out := make([]*Position, len(t.open))
	copy(out, t.open)
	return out
}

// Ledger returns the closed positions in close order. The returned slice
// is shared; callers must treat it as read-only.
func (t *Tracker) Ledger() []*Position {
	return t.ledger
}

// Advance checks every open position against the bar exactly once and
// closes those whose stop or target was crossed, filling at the breached
// level itself rather than the bar close. All exits for a bar complete
// before the caller considers any new entry on that bar.
func (t *Tracker) Advance(m *Manager, bar types.OHLCV) error {
	remaining := t.open[:0]
	for i, p := range t.open {
		reason := m.CheckPositionExit(p, bar)
		if reason == ExitNone {
			remaining = append(remaining, p)
			continue
		}

		exitPrice := p.StopLossPrice
		if reason == ExitTakeProfit {
			exitPrice = p.TakeProfitPrice
		}

		err := m.ClosePosition(p, exitPrice, reason, bar.Timestamp)
		if p.IsClosed() {
			delete(t.byInstrument, p.Instrument)
			t.ledger = append(t.ledger, p)
		} else if err != nil {
			remaining = append(remaining, p)
		}
		if err != nil {
			// Commit what was processed plus the untouched tail so an
			// aborted bar never leaves a closed position in the open set.
			t.open = append(remaining, t.open[i+1:]...)
			return err
		}
	}
	t.open = remaining
	return nil
}

// CloseAll force-closes every open position at the given price, appending
// each to the ledger. Used when a run reaches DONE with positions still
// open, so every open is matched with exactly one close.
func (t *Tracker) CloseAll(m *Manager, price float64, ts time.Time, reason ExitReason) error {
	for i, p := range t.open {
		err := m.ClosePosition(p, price, reason, ts)
		if p.IsClosed() {
			delete(t.byInstrument, p.Instrument)
			t.ledger = append(t.ledger, p)
		}
		if err != nil {
			tail := t.open[i+1:]
			if !p.IsClosed() {
				tail = t.open[i:]
			}
			t.open = append(t.open[:0], tail...)
			return err
		}
	}
	t.open = t.open[:0]
	return nil
}
