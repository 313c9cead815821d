package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/config"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/risk"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/safety"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

func TestRenderStartupTable(t *testing.T) {
	out := renderStartupTable(config.Default())

	assert.Contains(t, out, "SCALP BOT")
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "TESTNET")
}

func TestRenderStatusTable(t *testing.T) {
	stats := risk.DailyStats{Trades: 3, Wins: 2, Losses: 1, RealizedPnL: 12.5}
	limits := safety.Status{
		DailyOrders:    4,
		MaxDailyOrders: 10,
		TradingHours:   "09:00-21:00",
		IsTradingTime:  true,
	}
	open := []types.Position{{
		Symbol:     "BTCUSDT",
		Side:       types.SideBuy,
		EntryPrice: 100,
		Quantity:   0.5,
		StopLoss:   99.3,
		TakeProfit: 101.8,
	}}

	out := renderStatusTable(stats, limits, open)

	assert.Contains(t, out, "4 / 10")
	assert.Contains(t, out, "3 (W:2 L:1)")
	// 0.5 at 100 is a 50 USDT notional.
	assert.Contains(t, out, "50.00 USDT")
	assert.Contains(t, out, "active")
}
