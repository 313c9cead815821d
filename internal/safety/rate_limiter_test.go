package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-03-04 12:00 local: inside the default trading window.
var tradingNoon = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func limiterAt(cfg Config, at time.Time) *TradeLimiter {
	l := NewTradeLimiter(cfg)
	l.now = func() time.Time { return at }
	l.lastResetDate = dateOf(at)
	return l
}

func advance(l *TradeLimiter, at time.Time) {
	l.now = func() time.Time { return at }
}

func TestCanPlaceOrder_Cooldown(t *testing.T) {
	l := limiterAt(DefaultConfig(), tradingNoon)

	require.True(t, l.CanPlaceOrder("BTCUSDT"))
	l.RegisterOrder("BTCUSDT")

	advance(l, tradingNoon.Add(1000*time.Second))
	assert.False(t, l.CanPlaceOrder("BTCUSDT"))

	// Cooldown is per symbol.
	assert.True(t, l.CanPlaceOrder("ETHUSDT"))

	advance(l, tradingNoon.Add(1801*time.Second))
	assert.True(t, l.CanPlaceOrder("BTCUSDT"))
}

func TestCanCheckSignal_Interval(t *testing.T) {
	l := limiterAt(DefaultConfig(), tradingNoon)

	require.True(t, l.CanCheckSignal("BTCUSDT"))
	l.RegisterSignal("BTCUSDT")

	advance(l, tradingNoon.Add(100*time.Second))
	assert.False(t, l.CanCheckSignal("BTCUSDT"))
	assert.True(t, l.CanCheckSignal("ETHUSDT"))

	advance(l, tradingNoon.Add(301*time.Second))
	assert.True(t, l.CanCheckSignal("BTCUSDT"))
}

func TestCanPlaceOrder_DailyCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDailyOrders = 2
	cfg.OrderCooldown = 0
	l := limiterAt(cfg, tradingNoon)

	l.RegisterOrder("BTCUSDT")
	l.RegisterOrder("ETHUSDT")
	assert.False(t, l.CanPlaceOrder("SOLUSDT"))

	// Midnight resets the counter.
	nextDay := tradingNoon.Add(22 * time.Hour) // Tuesday 10:00
	advance(l, nextDay)
	assert.True(t, l.CanPlaceOrder("SOLUSDT"))

	st := l.CurrentStatus()
	assert.Equal(t, 0, st.DailyOrders)
}

func TestTradingWindow(t *testing.T) {
	l := limiterAt(DefaultConfig(), tradingNoon)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday noon", tradingNoon, true},
		{"start hour inclusive", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), true},
		{"end hour exclusive", time.Date(2024, 3, 4, 21, 0, 0, 0, time.UTC), false},
		{"before open", time.Date(2024, 3, 4, 8, 59, 0, 0, time.UTC), false},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advance(l, tt.at)
			assert.Equal(t, tt.want, l.CanPlaceOrder("BTCUSDT"))
			assert.Equal(t, tt.want, l.CanCheckSignal("BTCUSDT"))
		})
	}
}

func TestTradingWindow_WeekendConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TradingDays = []int{6, 7}
	l := limiterAt(cfg, tradingNoon)

	assert.False(t, l.CanPlaceOrder("BTCUSDT"))

	advance(l, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)) // Sunday
	assert.True(t, l.CanPlaceOrder("BTCUSDT"))
}

func TestNextOrderTime(t *testing.T) {
	l := limiterAt(DefaultConfig(), tradingNoon)

	assert.Equal(t, tradingNoon, l.NextOrderTime("BTCUSDT"))

	l.RegisterOrder("BTCUSDT")
	assert.Equal(t, tradingNoon.Add(1800*time.Second), l.NextOrderTime("BTCUSDT"))
}

func TestCurrentStatus(t *testing.T) {
	l := limiterAt(DefaultConfig(), tradingNoon)
	l.RegisterOrder("BTCUSDT")

	st := l.CurrentStatus()
	assert.Equal(t, 1, st.DailyOrders)
	assert.Equal(t, 10, st.MaxDailyOrders)
	assert.Equal(t, "09:00-21:00", st.TradingHours)
	assert.True(t, st.IsTradingTime)
}
