package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

func risingCandles(n int, start float64) []types.Candle {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		close := start + float64(i)
		out[i] = types.Candle{
			Symbol:    "BTCUSDT",
			Open:      close - 0.5,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestEngine_InsufficientData(t *testing.T) {
	e := NewEngine(DefaultConfig())

	_, err := e.Compute(risingCandles(e.RequiredCandles()-1, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEngine_RequiredCandles(t *testing.T) {
	// Defaults: MACD slow 17 + signal 7 dominates.
	e := NewEngine(DefaultConfig())
	assert.Equal(t, 24, e.RequiredCandles())

	cfg := DefaultConfig()
	cfg.BBPeriod = 40
	assert.Equal(t, 40, NewEngine(cfg).RequiredCandles())
}

func TestEngine_PureFunctionOfWindow(t *testing.T) {
	e := NewEngine(DefaultConfig())
	data := risingCandles(50, 100)

	first, err := e.Compute(data)
	require.NoError(t, err)
	second, err := e.Compute(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_RisingMarketSnapshot(t *testing.T) {
	// 20 candles with closes rising linearly from 100 to 119: the trend
	// indicators must all point up.
	cfg := Config{
		EMAShortPeriod: 3,
		EMALongPeriod:  7,
		RSIPeriod:      5,
		RSIOverbought:  70,
		RSIOversold:    30,
		MACDFast:       8,
		MACDSlow:       12,
		MACDSignal:     5,
		BBPeriod:       10,
		BBStdDev:       2.0,
		MomentumPeriod: 3,
	}
	e := NewEngine(cfg)

	snap, err := e.Compute(risingCandles(20, 100))
	require.NoError(t, err)

	assert.Greater(t, snap.EMAShort, snap.EMALong)
	assert.Greater(t, snap.Momentum, 0.0)
	assert.Greater(t, snap.RSI, 50.0)
	assert.Equal(t, 119.0, snap.Close)
}

func TestRSI_AlwaysInRange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"rising", []float64{100, 101, 102, 103, 104, 105}},
		{"falling", []float64{105, 104, 103, 102, 101, 100}},
		{"choppy", []float64{100, 102, 99, 103, 98, 104}},
		{"flat", []float64{100, 100, 100, 100, 100, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi, err := RSI(tt.values, 5)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, rsi, 0.0)
			assert.LessOrEqual(t, rsi, 100.0)
		})
	}
}

func TestRSI_ZeroLossIsExactly100(t *testing.T) {
	rsi, err := RSI([]float64{1, 2, 3, 4, 5, 6}, 5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	// All-flat deltas also count as zero loss.
	rsi, err = RSI([]float64{5, 5, 5, 5, 5, 5}, 5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestRSI_InsufficientData(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3}, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMASeries_SeededByFirstValue(t *testing.T) {
	series := EMASeries([]float64{10, 20, 30}, 3)
	require.Len(t, series, 3)

	assert.Equal(t, 10.0, series[0])
	// alpha = 2/(3+1) = 0.5
	assert.InDelta(t, 15.0, series[1], 1e-9)
	assert.InDelta(t, 22.5, series[2], 1e-9)
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	upper, middle, lower, err := Bollinger([]float64{100, 100, 100, 100, 100}, 5, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, middle)
	assert.Equal(t, middle, upper)
	assert.Equal(t, middle, lower)
}

func TestBollinger_BandsAroundMean(t *testing.T) {
	upper, middle, lower, err := Bollinger([]float64{98, 99, 100, 101, 102}, 5, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, middle, 1e-9)
	assert.Greater(t, upper, middle)
	assert.Less(t, lower, middle)
	assert.InDelta(t, upper-middle, middle-lower, 1e-9)
}

func TestMomentum(t *testing.T) {
	m, err := Momentum([]float64{100, 101, 102, 103}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)

	m, err = Momentum([]float64{103, 102, 101, 100}, 3)
	require.NoError(t, err)
	assert.Equal(t, -3.0, m)

	_, err = Momentum([]float64{100, 101}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACD_TrendSign(t *testing.T) {
	rising := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	macdLine, _ := MACD(rising, 8, 17, 7)
	assert.Greater(t, macdLine, 0.0, "fast EMA should lead in an uptrend")

	falling := make([]float64, 40)
	for i := range falling {
		falling[i] = 140 - float64(i)
	}
	macdLine, _ = MACD(falling, 8, 17, 7)
	assert.Less(t, macdLine, 0.0)
}
