package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Config holds sizing and budget parameters. Fraction fields are
// fractions of account balance (0.05 = 5%).
type Config struct {
	MaxPositionFraction     float64 `json:"max_position_size"`
	MinPositionFraction     float64 `json:"min_position_size"`
	DefaultPositionFraction float64 `json:"default_position_size"`
	FixedLotSize            float64 `json:"fixed_lot_size"`
	UseFixedLot             bool    `json:"use_fixed_lot"`
	MaxDailyLossFraction    float64 `json:"max_daily_loss"`
	MaxPositionLossFraction float64 `json:"max_position_loss"`
	MaxOpenPositions        int     `json:"max_open_positions"`
	MinTimeBetweenTrades    int     `json:"min_time_between_trades"` // seconds
}

// DefaultConfig returns the stock risk limits.
func DefaultConfig() Config {
	return Config{
		MaxPositionFraction:     0.1,
		MinPositionFraction:     0.01,
		DefaultPositionFraction: 0.05,
		FixedLotSize:            100,
		UseFixedLot:             false,
		MaxDailyLossFraction:    0.05,
		MaxPositionLossFraction: 0.02,
		MaxOpenPositions:        3,
		MinTimeBetweenTrades:    300,
	}
}

// RejectReason identifies which risk check failed. Rejections are normal
// negative results, not errors in the exceptional sense.
type RejectReason string

const (
	RejectDailyLossLimit RejectReason = "DAILY_LOSS_LIMIT"
	RejectMaxPositions   RejectReason = "MAX_OPEN_POSITIONS"
	RejectTradeCooldown  RejectReason = "TRADE_COOLDOWN"
	RejectNotionalCap    RejectReason = "NOTIONAL_CAP"
)

// Rejection is returned by Validate when a signal fails a risk check.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("risk rejection (%s): %s", r.Reason, r.Detail)
}

// DailyStats tracks realized results for the current calendar date.
// It resets exactly once when the date advances, never mid-day.
type DailyStats struct {
	Date        time.Time
	Trades      int
	RealizedPnL float64
	Wins        int
	Losses      int
}

// Manager validates signals against daily and position limits, sizes
// positions, and owns the daily statistics. All methods are safe for
// concurrent use.
type Manager struct {
	cfg Config

	mu          sync.Mutex
	stats       DailyStats
	lastTradeAt time.Time

	now func() time.Time
}

// NewManager creates a risk manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{cfg: cfg, now: time.Now}
	m.stats = DailyStats{Date: dateOf(m.now())}
	return m
}

// Validate runs the risk checks in order: daily loss budget, open
// position count, trade cooldown, notional cap. The first failure
// rejects with its reason; nothing is partially applied.
func (m *Manager) Validate(sig *types.Signal, openPositions int, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.rolloverLocked(now)

	if m.stats.RealizedPnL <= -(balance * m.cfg.MaxDailyLossFraction) {
		return &Rejection{
			Reason: RejectDailyLossLimit,
			Detail: fmt.Sprintf("daily loss %.2f exceeds budget %.2f", -m.stats.RealizedPnL, balance*m.cfg.MaxDailyLossFraction),
		}
	}

	if openPositions >= m.cfg.MaxOpenPositions {
		return &Rejection{
			Reason: RejectMaxPositions,
			Detail: fmt.Sprintf("%d positions already open (max %d)", openPositions, m.cfg.MaxOpenPositions),
		}
	}

	minGap := time.Duration(m.cfg.MinTimeBetweenTrades) * time.Second
	if !m.lastTradeAt.IsZero() && now.Sub(m.lastTradeAt) < minGap {
		return &Rejection{
			Reason: RejectTradeCooldown,
			Detail: fmt.Sprintf("only %s since last trade (min %s)", now.Sub(m.lastTradeAt).Round(time.Second), minGap),
		}
	}

	notional := m.positionSizeLocked(sig.Price, balance) * sig.Price
	if notional > balance*m.cfg.MaxPositionFraction {
		return &Rejection{
			Reason: RejectNotionalCap,
			Detail: fmt.Sprintf("notional %.2f exceeds %.2f%% of balance", notional, m.cfg.MaxPositionFraction*100),
		}
	}

	return nil
}

// PositionSize returns the quantity to trade. With fixed-lot sizing the
// configured notional is divided by price; otherwise the default balance
// fraction, clamped to [min, max] fractions, is divided by price.
// Non-positive inputs yield 0.
func (m *Manager) PositionSize(entryPrice, stopLoss, balance float64) float64 {
	if entryPrice <= 0 || stopLoss <= 0 || balance <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionSizeLocked(entryPrice, balance)
}

func (m *Manager) positionSizeLocked(price, balance float64) float64 {
	if price <= 0 || balance <= 0 {
		return 0
	}
	if m.cfg.UseFixedLot {
		return m.cfg.FixedLotSize / price
	}

	notional := balance * m.cfg.DefaultPositionFraction
	if max := balance * m.cfg.MaxPositionFraction; notional > max {
		notional = max
	}
	if min := balance * m.cfg.MinPositionFraction; notional < min {
		notional = min
	}
	return notional / price
}

// ClampStopLoss overrides the signal's proposed stop when the worst-case
// loss at that stop would exceed the per-position loss budget. The stop
// is only ever tightened, never loosened.
func (m *Manager) ClampStopLoss(sig *types.Signal, quantity, balance float64) {
	if quantity <= 0 || balance <= 0 {
		return
	}
	maxLoss := balance * m.cfg.MaxPositionLossFraction
	lossAtStop := sig.Price - sig.StopLoss
	if sig.Side == types.SideSell {
		lossAtStop = sig.StopLoss - sig.Price
	}
	if lossAtStop*quantity <= maxLoss {
		return
	}

	allowed := maxLoss / quantity
	if sig.Side == types.SideBuy {
		sig.StopLoss = sig.Price - allowed
	} else {
		sig.StopLoss = sig.Price + allowed
	}
}

// RecordResult updates the daily statistics with a realized PnL,
// resetting the counters first when the wall-clock date has advanced.
func (m *Manager) RecordResult(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverLocked(m.now())

	m.stats.Trades++
	m.stats.RealizedPnL += pnl
	if pnl > 0 {
		m.stats.Wins++
	} else {
		m.stats.Losses++
	}
}

// MarkTradeOpened records when a trade was opened on any symbol; the
// trade-cooldown check measures from this instant.
func (m *Manager) MarkTradeOpened(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTradeAt = t
}

// Stats returns a copy of the current daily statistics.
func (m *Manager) Stats() DailyStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked(m.now())
	return m.stats
}

func (m *Manager) rolloverLocked(now time.Time) {
	today := dateOf(now)
	if !today.Equal(m.stats.Date) {
		m.stats = DailyStats{Date: today}
	}
}

func dateOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
