package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// bullishSnapshot satisfies every LONG condition.
func bullishSnapshot() *indicators.Snapshot {
	return &indicators.Snapshot{
		EMAShort:   104,
		EMALong:    101,
		RSI:        55,
		MACD:       1.5,
		MACDSignal: 1.0,
		BBUpper:    110,
		BBMiddle:   102,
		BBLower:    94,
		Momentum:   2.0,
		Close:      105,
	}
}

// bearishSnapshot satisfies every SHORT condition.
func bearishSnapshot() *indicators.Snapshot {
	return &indicators.Snapshot{
		EMAShort:   96,
		EMALong:    99,
		RSI:        45,
		MACD:       -1.5,
		MACDSignal: -1.0,
		BBUpper:    106,
		BBMiddle:   98,
		BBLower:    90,
		Momentum:   -2.0,
		Close:      95,
	}
}

func TestGenerator_LongSignal(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	sig := g.Evaluate("BTCUSDT", bullishSnapshot(), false)
	require.NotNil(t, sig)

	assert.Equal(t, types.SideBuy, sig.Side)
	assert.Equal(t, 105.0, sig.Price)
	assert.Equal(t, 100.0, sig.Strength)
	assert.InDelta(t, 105*0.993, sig.StopLoss, 1e-9)
	assert.InDelta(t, 105*1.018, sig.TakeProfit, 1e-9)
}

func TestGenerator_ShortSignal(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	sig := g.Evaluate("BTCUSDT", bearishSnapshot(), false)
	require.NotNil(t, sig)

	assert.Equal(t, types.SideSell, sig.Side)
	assert.InDelta(t, 95*1.007, sig.StopLoss, 1e-9)
	assert.InDelta(t, 95*0.982, sig.TakeProfit, 1e-9)
}

func TestGenerator_NoSignalWhenPositionOpen(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	assert.Nil(t, g.Evaluate("BTCUSDT", bullishSnapshot(), true))
}

func TestGenerator_NoSignalOnNilSnapshot(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	assert.Nil(t, g.Evaluate("BTCUSDT", nil, false))
}

func TestGenerator_RejectsWhenConditionBroken(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	tests := []struct {
		name   string
		mutate func(s *indicators.Snapshot)
	}{
		{"trend against", func(s *indicators.Snapshot) { s.EMAShort = s.EMALong - 1 }},
		{"rsi too low", func(s *indicators.Snapshot) { s.RSI = 25 }},
		{"rsi too high", func(s *indicators.Snapshot) { s.RSI = 70 }},
		{"macd below signal line", func(s *indicators.Snapshot) { s.MACDSignal = s.MACD + 1 }},
		{"price below middle band", func(s *indicators.Snapshot) { s.BBMiddle = s.Close + 1 }},
		{"negative momentum", func(s *indicators.Snapshot) { s.Momentum = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := bullishSnapshot()
			tt.mutate(snap)
			// Breaking a single LONG condition must not flip into a SHORT
			// signal either, since the SHORT set needs all its conditions.
			assert.Nil(t, g.Evaluate("BTCUSDT", snap, false))
		})
	}
}

func TestGenerator_StrengthBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSignalStrength = 90
	g := NewGenerator(cfg)

	snap := bullishSnapshot()
	snap.Close = snap.EMAShort - 0.5 // directional component fails
	snap.BBMiddle = snap.Close - 1   // keep price above middle band

	// Five gates hold but strength is (6.5-1.0)/6.5*100 ≈ 84.6 < 90.
	assert.Nil(t, g.Evaluate("BTCUSDT", snap, false))

	cfg.MinSignalStrength = 80
	g = NewGenerator(cfg)
	sig := g.Evaluate("BTCUSDT", snap, false)
	require.NotNil(t, sig)
	assert.InDelta(t, 100*5.5/6.5, sig.Strength, 1e-9)
}

func TestGenerator_StrengthAlwaysInRange(t *testing.T) {
	snaps := []*indicators.Snapshot{bullishSnapshot(), bearishSnapshot(), {}}
	for _, snap := range snaps {
		for _, side := range []types.Side{types.SideBuy, types.SideSell} {
			s := weightedStrength(sideConditions(snap, side))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
	}
}

func TestGenerator_LongPrecedenceOnDegenerateState(t *testing.T) {
	// A zeroed snapshot cannot satisfy both sides; force the overlap by
	// checking the evaluation order directly: the generator tries BUY
	// before SELL, so an all-conditions snapshot yields BUY.
	g := NewGenerator(DefaultConfig())
	sig := g.Evaluate("BTCUSDT", bullishSnapshot(), false)
	require.NotNil(t, sig)
	assert.Equal(t, types.SideBuy, sig.Side)
}
