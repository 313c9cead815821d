package bot

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/config"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/risk"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/safety"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// renderStartupTable formats the effective configuration for the log.
func renderStartupTable(cfg *config.Config) string {
	t := table.NewWriter()
	t.SetTitle("SCALP BOT")
	t.SetStyle(table.StyleRounded)

	env := "🧪 TESTNET"
	if !cfg.Exchange.Testnet {
		env = "🔴 LIVE"
	}

	t.AppendRows([]table.Row{
		{"📊 Symbols", strings.Join(cfg.Strategy.Symbols, ", ")},
		{"⏰ Interval", cfg.Strategy.Interval},
		{"🪟 Window", fmt.Sprintf("%d candles", cfg.Strategy.WindowSize)},
		{"🏪 Exchange", cfg.Exchange.Name},
		{"🔧 Environment", env},
		{"🎯 Min strength", fmt.Sprintf("%.0f", cfg.Strategy.Signals.MinSignalStrength)},
		{"🛑 Stop loss", fmt.Sprintf("%.2f%%", cfg.Strategy.Signals.StopLossPercent)},
		{"💰 Take profit", fmt.Sprintf("%.2f%%", cfg.Strategy.Signals.TakeProfitPercent)},
		{"📅 Trading hours", fmt.Sprintf("%02d:00-%02d:00", cfg.Limits.TradingHoursStart, cfg.Limits.TradingHoursEnd)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, WidthMax: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 28, WidthMax: 40, Align: text.AlignLeft},
	})

	return t.Render()
}

// renderStatusTable formats the current trading status for the log.
func renderStatusTable(stats risk.DailyStats, limits safety.Status, open []types.Position) string {
	t := table.NewWriter()
	t.SetTitle("STATUS")
	t.SetStyle(table.StyleRounded)

	trading := "⏸ paused"
	if limits.IsTradingTime {
		trading = "▶ active"
	}

	t.AppendRows([]table.Row{
		{"Trading window", fmt.Sprintf("%s (%s)", limits.TradingHours, trading)},
		{"Daily orders", fmt.Sprintf("%d / %d", limits.DailyOrders, limits.MaxDailyOrders)},
		{"Daily trades", fmt.Sprintf("%d (W:%d L:%d)", stats.Trades, stats.Wins, stats.Losses)},
		{"Realized PnL", fmt.Sprintf("%.4f", stats.RealizedPnL)},
		{"Open positions", len(open)},
	})
	for _, p := range open {
		t.AppendRow(table.Row{
			"  " + p.Symbol,
			fmt.Sprintf("%s %.2f USDT @ %.4f  SL %.4f  TP %.4f",
				p.Side, p.Notional(), p.EntryPrice, p.StopLoss, p.TakeProfit),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, WidthMax: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 28, WidthMax: 60, Align: text.AlignLeft},
	})

	return t.Render()
}
