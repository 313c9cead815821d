package strategy

import (
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Config holds the signal thresholds and the fixed exit offsets proposed
// with each signal. Percent values are in percent units (0.7 means 0.7%).
type Config struct {
	MinSignalStrength float64 `json:"min_signal_strength"`
	StopLossPercent   float64 `json:"stop_loss_percent"`
	TakeProfitPercent float64 `json:"take_profit_percent"`
}

// DefaultConfig returns the scalping defaults: 0.7% stop, 1.8% target.
func DefaultConfig() Config {
	return Config{
		MinSignalStrength: 50,
		StopLossPercent:   0.7,
		TakeProfitPercent: 1.8,
	}
}

// strengthWeights score the six sub-conditions: trend cross, RSI
// mid-band, MACD relation, price vs middle band, momentum sign, and the
// directional condition (price relative to the fast EMA).
var strengthWeights = [6]float64{1.2, 1.2, 1.0, 1.1, 1.0, 1.0}

// Generator turns indicator snapshots into at most one directional trade
// signal. It is a pure function of its inputs plus clock.
type Generator struct {
	cfg Config
	now func() time.Time
}

// NewGenerator creates a signal generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, now: time.Now}
}

// Evaluate returns a signal when all entry conditions for one side hold,
// or nil. A symbol with an open position never gets a new signal,
// independent of any locking above this layer. LONG and SHORT condition
// sets are mutually exclusive by construction; should a degenerate
// indicator state satisfy both, LONG wins.
func (g *Generator) Evaluate(symbol string, snap *indicators.Snapshot, positionOpen bool) *types.Signal {
	if snap == nil || positionOpen {
		return nil
	}

	if sig := g.evaluateSide(symbol, snap, types.SideBuy); sig != nil {
		return sig
	}
	return g.evaluateSide(symbol, snap, types.SideSell)
}

func (g *Generator) evaluateSide(symbol string, snap *indicators.Snapshot, side types.Side) *types.Signal {
	conditions := sideConditions(snap, side)
	strength := weightedStrength(conditions)

	// The first five conditions gate entry; the sixth (price vs fast EMA)
	// only contributes to the strength score.
	for _, ok := range conditions[:5] {
		if !ok {
			return nil
		}
	}
	if strength < g.cfg.MinSignalStrength {
		return nil
	}

	return &types.Signal{
		Symbol:      symbol,
		Side:        side,
		Price:       snap.Close,
		Strength:    strength,
		StopLoss:    g.stopLoss(snap.Close, side),
		TakeProfit:  g.takeProfit(snap.Close, side),
		GeneratedAt: g.now(),
	}
}

// sideConditions returns the six entry conditions for a side, in the
// same order as strengthWeights.
func sideConditions(snap *indicators.Snapshot, side types.Side) [6]bool {
	if side == types.SideBuy {
		return [6]bool{
			snap.EMAShort > snap.EMALong,
			snap.RSI > 30 && snap.RSI < 65,
			snap.MACD > snap.MACDSignal,
			snap.Close > snap.BBMiddle,
			snap.Momentum > 0,
			snap.Close > snap.EMAShort,
		}
	}
	return [6]bool{
		snap.EMAShort < snap.EMALong,
		snap.RSI > 35 && snap.RSI < 65,
		snap.MACD < snap.MACDSignal,
		snap.Close < snap.BBMiddle,
		snap.Momentum < 0,
		snap.Close < snap.EMAShort,
	}
}

// weightedStrength normalizes the weighted condition sum to [0,100].
func weightedStrength(conditions [6]bool) float64 {
	sum := 0.0
	total := 0.0
	for i, w := range strengthWeights {
		total += w
		if conditions[i] {
			sum += w
		}
	}
	return sum / total * 100
}

func (g *Generator) stopLoss(price float64, side types.Side) float64 {
	offset := g.cfg.StopLossPercent / 100
	if side == types.SideBuy {
		return price * (1 - offset)
	}
	return price * (1 + offset)
}

func (g *Generator) takeProfit(price float64, side types.Side) float64 {
	offset := g.cfg.TakeProfitPercent / 100
	if side == types.SideBuy {
		return price * (1 + offset)
	}
	return price * (1 - offset)
}
