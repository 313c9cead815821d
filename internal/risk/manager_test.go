package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

func testSignal(price float64) *types.Signal {
	return &types.Signal{
		Symbol:     "BTCUSDT",
		Side:       types.SideBuy,
		Price:      price,
		Strength:   80,
		StopLoss:   price * 0.993,
		TakeProfit: price * 1.018,
	}
}

func managerAt(cfg Config, t time.Time) (*Manager, *time.Time) {
	clock := t
	m := NewManager(cfg)
	m.now = func() time.Time { return clock }
	m.stats = DailyStats{Date: dateOf(clock)}
	return m, &clock
}

func TestPositionSize_BalanceFraction(t *testing.T) {
	m := NewManager(DefaultConfig())

	// balance=1000, default fraction 0.05, price=50 → (1000*0.05)/50 = 1.0
	qty := m.PositionSize(50, 49.65, 1000)
	assert.InDelta(t, 1.0, qty, 1e-9)
}

func TestPositionSize_ClampedToFractions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultPositionFraction = 0.5 // above max 0.1
	m := NewManager(cfg)
	assert.InDelta(t, (1000*0.1)/50, m.PositionSize(50, 49, 1000), 1e-9)

	cfg.DefaultPositionFraction = 0.001 // below min 0.01
	m = NewManager(cfg)
	assert.InDelta(t, (1000*0.01)/50, m.PositionSize(50, 49, 1000), 1e-9)
}

func TestPositionSize_FixedLot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseFixedLot = true
	cfg.FixedLotSize = 100
	m := NewManager(cfg)

	assert.InDelta(t, 2.0, m.PositionSize(50, 49, 1000), 1e-9)
}

func TestPositionSize_InvalidInputs(t *testing.T) {
	m := NewManager(DefaultConfig())

	assert.Zero(t, m.PositionSize(0, 49, 1000))
	assert.Zero(t, m.PositionSize(50, -1, 1000))
	assert.Zero(t, m.PositionSize(50, 49, 0))
}

func TestValidate_Accepts(t *testing.T) {
	m, _ := managerAt(DefaultConfig(), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.NoError(t, m.Validate(testSignal(50), 0, 1000))
}

func TestValidate_DailyLossBudget(t *testing.T) {
	m, _ := managerAt(DefaultConfig(), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	m.RecordResult(-50) // 5% of 1000, budget exhausted

	err := m.Validate(testSignal(50), 0, 1000)
	require.Error(t, err)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectDailyLossLimit, rej.Reason)
}

func TestValidate_MaxOpenPositions(t *testing.T) {
	m, _ := managerAt(DefaultConfig(), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	err := m.Validate(testSignal(50), 3, 1000)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectMaxPositions, rej.Reason)
}

func TestValidate_TradeCooldown(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, clock := managerAt(DefaultConfig(), start)

	m.MarkTradeOpened(start)

	*clock = start.Add(100 * time.Second)
	err := m.Validate(testSignal(50), 0, 1000)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectTradeCooldown, rej.Reason)

	*clock = start.Add(301 * time.Second)
	assert.NoError(t, m.Validate(testSignal(50), 0, 1000))
}

func TestValidate_NotionalCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseFixedLot = true
	cfg.FixedLotSize = 500 // 50% of a 1000 balance
	m, _ := managerAt(cfg, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	err := m.Validate(testSignal(50), 0, 1000)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectNotionalCap, rej.Reason)
}

func TestClampStopLoss_TightensOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositionLossFraction = 0.001 // 1.0 on a 1000 balance
	m := NewManager(cfg)

	sig := testSignal(50) // stop at 49.65, loss/unit 0.35
	m.ClampStopLoss(sig, 10, 1000)
	// Worst case 3.5 > 1.0: stop moves to 50 - 1.0/10 = 49.9.
	assert.InDelta(t, 49.9, sig.StopLoss, 1e-9)

	// Already within budget: untouched.
	sig = testSignal(50)
	m.ClampStopLoss(sig, 1, 1000)
	assert.InDelta(t, 50*0.993, sig.StopLoss, 1e-9)
}

func TestRecordResult_DailyRollover(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	m, clock := managerAt(DefaultConfig(), start)

	m.RecordResult(10)
	m.RecordResult(-4)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Trades)
	assert.InDelta(t, 6.0, stats.RealizedPnL, 1e-9)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)

	// Still the same date: no reset.
	*clock = start.Add(5 * time.Minute)
	assert.Equal(t, 2, m.Stats().Trades)

	// Date advances: counters reset exactly once, then accumulate again.
	*clock = start.Add(20 * time.Minute)
	stats = m.Stats()
	assert.Equal(t, 0, stats.Trades)
	assert.Zero(t, stats.RealizedPnL)

	m.RecordResult(3)
	assert.Equal(t, 1, m.Stats().Trades)
}
