package position

import (
	"fmt"
	"sync"
	"time"

	boterrors "github.com/ducminhle1904/crypto-scalp-bot/internal/errors"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Config holds the exit parameters for open positions.
type Config struct {
	MaxPositionTime     time.Duration
	EnableTrailingStop  bool
	TrailingStopPercent float64 // percent units (0.5 means 0.5%)
	RSIOverbought       float64
	RSIOversold         float64
}

// DefaultConfig returns the scalping exit defaults.
func DefaultConfig() Config {
	return Config{
		MaxPositionTime:     10 * time.Minute,
		EnableTrailingStop:  true,
		TrailingStopPercent: 0.5,
		RSIOverbought:       70,
		RSIOversold:         30,
	}
}

// CloseDecision is the outcome of an exit-condition evaluation.
type CloseDecision struct {
	Reason types.CloseReason
	Price  float64
}

// Tracker owns the open positions, at most one per symbol. A position
// exists only between a successful order placement (Open) and the
// commit of its flattening order (Close); callers serialize per-symbol
// access, the internal lock only guards the map across symbols.
type Tracker struct {
	cfg Config

	mu   sync.RWMutex
	open map[string]types.Position
}

// NewTracker creates an empty tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, open: make(map[string]types.Position)}
}

// Open registers a freshly filled position. Opening a symbol that is
// already OPEN is a logic-level anomaly: the per-symbol exclusion above
// this layer should make it impossible.
func (t *Tracker) Open(p types.Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.open[p.Symbol]; exists {
		return boterrors.NewConcurrencyError("position", "open",
			fmt.Sprintf("position already open for %s", p.Symbol))
	}
	t.open[p.Symbol] = p
	return nil
}

// Get returns a copy of the open position for the symbol.
func (t *Tracker) Get(symbol string) (types.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.open[symbol]
	return p, ok
}

// HasOpen reports whether the symbol currently has an open position.
func (t *Tracker) HasOpen(symbol string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.open[symbol]
	return ok
}

// Count returns the number of open positions across all symbols.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open)
}

// Symbols returns the symbols with open positions.
func (t *Tracker) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.open))
	for s := range t.open {
		out = append(out, s)
	}
	return out
}

// Manage evaluates the exit conditions for an open position at the
// current price, in fixed priority order: stop loss, take profit,
// maximum holding time, technical reversal. The first match wins. When
// no exit fires and trailing stops are enabled, a favorable price move
// ratchets the stop toward the price; the stop never loosens. The
// snapshot may be nil when indicator history is insufficient; the
// technical check is then skipped.
func (t *Tracker) Manage(symbol string, price float64, snap *indicators.Snapshot, now time.Time) *CloseDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[symbol]
	if !ok {
		return nil
	}

	if stopHit(p, price) {
		return &CloseDecision{Reason: types.CloseReasonStopLoss, Price: price}
	}
	if targetHit(p, price) {
		return &CloseDecision{Reason: types.CloseReasonTakeProfit, Price: price}
	}
	if now.Sub(p.OpenedAt) > t.cfg.MaxPositionTime {
		return &CloseDecision{Reason: types.CloseReasonMaxTime, Price: price}
	}
	if snap != nil && t.technicalReversal(p, snap) {
		return &CloseDecision{Reason: types.CloseReasonTechnicalExit, Price: price}
	}

	if t.cfg.EnableTrailingStop {
		if updated, changed := trail(p, price, t.cfg.TrailingStopPercent); changed {
			t.open[symbol] = updated
		}
	}
	return nil
}

// Close removes the position and returns the completed trade record.
// Callers invoke it only after the flattening order succeeded.
func (t *Tracker) Close(symbol string, exitPrice float64, reason types.CloseReason, now time.Time) (types.TradeResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[symbol]
	if !ok {
		return types.TradeResult{}, boterrors.NewConcurrencyError("position", "close",
			fmt.Sprintf("no open position for %s", symbol))
	}
	delete(t.open, symbol)

	return types.TradeResult{
		Symbol:         p.Symbol,
		Side:           p.Side,
		EntryPrice:     p.EntryPrice,
		ExitPrice:      exitPrice,
		Quantity:       p.Quantity,
		PnL:            p.UnrealizedPnL(exitPrice),
		OpenedAt:       p.OpenedAt,
		ClosedAt:       now,
		Reason:         reason,
		SignalStrength: p.SignalStrength,
	}, nil
}

func stopHit(p types.Position, price float64) bool {
	if p.Side == types.SideBuy {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

func targetHit(p types.Position, price float64) bool {
	if p.Side == types.SideBuy {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}

func (t *Tracker) technicalReversal(p types.Position, snap *indicators.Snapshot) bool {
	if p.Side == types.SideBuy {
		return snap.RSI > t.cfg.RSIOverbought ||
			snap.Close < snap.EMAShort ||
			snap.MACD < snap.MACDSignal
	}
	return snap.RSI < t.cfg.RSIOversold ||
		snap.Close > snap.EMAShort ||
		snap.MACD > snap.MACDSignal
}

func trail(p types.Position, price float64, percent float64) (types.Position, bool) {
	offset := percent / 100
	if p.Side == types.SideBuy {
		candidate := price * (1 - offset)
		if candidate > p.StopLoss {
			p.StopLoss = candidate
			return p, true
		}
		return p, false
	}
	candidate := price * (1 + offset)
	if candidate < p.StopLoss {
		p.StopLoss = candidate
		return p, true
	}
	return p, false
}
