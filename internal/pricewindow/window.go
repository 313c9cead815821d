package pricewindow

import (
	"fmt"

	boterrors "github.com/ducminhle1904/crypto-scalp-bot/internal/errors"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// DefaultCapacity matches the feed's historical warm-up size.
const DefaultCapacity = 100

// Window is a bounded rolling buffer of closed candles for one symbol,
// ordered by strictly increasing timestamp. It has a single owner; the
// caller serializes access per symbol.
type Window struct {
	symbol   string
	capacity int
	candles  []types.Candle
}

// New creates an empty window. Non-positive capacity falls back to
// DefaultCapacity.
func New(symbol string, capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		symbol:   symbol,
		capacity: capacity,
		candles:  make([]types.Candle, 0, capacity),
	}
}

// Append pushes a candle and evicts the oldest once capacity is exceeded.
// A candle whose timestamp is not strictly after the last stored one is
// rejected without mutating the window: either the feed delivered a
// duplicate or the observed source has a gap.
func (w *Window) Append(c types.Candle) error {
	if n := len(w.candles); n > 0 && !c.Timestamp.After(w.candles[n-1].Timestamp) {
		return boterrors.NewDataError("pricewindow", "append",
			fmt.Sprintf("stale candle for %s: %s is not after %s",
				w.symbol, c.Timestamp.Format("15:04:05"), w.candles[n-1].Timestamp.Format("15:04:05")))
	}

	w.candles = append(w.candles, c)
	if len(w.candles) > w.capacity {
		// Shift instead of re-slicing so the backing array does not grow
		// without bound over a long session.
		copy(w.candles, w.candles[1:])
		w.candles = w.candles[:w.capacity]
	}
	return nil
}

// Snapshot returns an ordered copy safe to hand to indicator computation.
func (w *Window) Snapshot() []types.Candle {
	out := make([]types.Candle, len(w.candles))
	copy(out, w.candles)
	return out
}

// Last returns the most recent candle, if any.
func (w *Window) Last() (types.Candle, bool) {
	if len(w.candles) == 0 {
		return types.Candle{}, false
	}
	return w.candles[len(w.candles)-1], true
}

// Len returns the number of stored candles.
func (w *Window) Len() int {
	return len(w.candles)
}

// Symbol returns the symbol this window belongs to.
func (w *Window) Symbol() string {
	return w.symbol
}
