package indicators

import (
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Config holds the lookback periods for every derived indicator.
type Config struct {
	EMAShortPeriod int     `json:"ema_short"`
	EMALongPeriod  int     `json:"ema_long"`
	RSIPeriod      int     `json:"rsi_period"`
	RSIOverbought  float64 `json:"rsi_overbought"`
	RSIOversold    float64 `json:"rsi_oversold"`
	MACDFast       int     `json:"macd_fast"`
	MACDSlow       int     `json:"macd_slow"`
	MACDSignal     int     `json:"macd_signal"`
	BBPeriod       int     `json:"bb_period"`
	BBStdDev       float64 `json:"bb_std"`
	MomentumPeriod int     `json:"momentum_period"`
}

// DefaultConfig returns the scalping defaults.
func DefaultConfig() Config {
	return Config{
		EMAShortPeriod: 3,
		EMALongPeriod:  7,
		RSIPeriod:      5,
		RSIOverbought:  70,
		RSIOversold:    30,
		MACDFast:       8,
		MACDSlow:       17,
		MACDSignal:     7,
		BBPeriod:       10,
		BBStdDev:       2.0,
		MomentumPeriod: 3,
	}
}

// Snapshot is the derived, read-only indicator state tied to the latest
// candle of the window it was computed from.
type Snapshot struct {
	EMAShort   float64
	EMALong    float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	Momentum   float64
	Close      float64
	Timestamp  time.Time
}

// Engine computes indicator snapshots from candle windows. It holds no
// state between calls: identical windows produce identical snapshots.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine for the given periods.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// RequiredCandles returns the largest lookback any indicator needs.
// Windows shorter than this yield ErrInsufficientData instead of a
// snapshot; early values are never backfilled from later ones.
func (e *Engine) RequiredCandles() int {
	required := e.cfg.EMALongPeriod
	if n := e.cfg.RSIPeriod + 1; n > required {
		required = n
	}
	if n := e.cfg.MACDSlow + e.cfg.MACDSignal; n > required {
		required = n
	}
	if e.cfg.BBPeriod > required {
		required = e.cfg.BBPeriod
	}
	if n := e.cfg.MomentumPeriod + 1; n > required {
		required = n
	}
	return required
}

// Compute derives a snapshot from the window contents.
func (e *Engine) Compute(candles []types.Candle) (*Snapshot, error) {
	if len(candles) < e.RequiredCandles() {
		return nil, ErrInsufficientData
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi, err := RSI(closes, e.cfg.RSIPeriod)
	if err != nil {
		return nil, err
	}

	upper, middle, lower, err := Bollinger(closes, e.cfg.BBPeriod, e.cfg.BBStdDev)
	if err != nil {
		return nil, err
	}

	momentum, err := Momentum(closes, e.cfg.MomentumPeriod)
	if err != nil {
		return nil, err
	}

	macdLine, signalLine := MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)

	last := candles[len(candles)-1]
	return &Snapshot{
		EMAShort:   EMA(closes, e.cfg.EMAShortPeriod),
		EMALong:    EMA(closes, e.cfg.EMALongPeriod),
		RSI:        rsi,
		MACD:       macdLine,
		MACDSignal: signalLine,
		BBUpper:    upper,
		BBMiddle:   middle,
		BBLower:    lower,
		Momentum:   momentum,
		Close:      last.Close,
		Timestamp:  last.Timestamp,
	}, nil
}
