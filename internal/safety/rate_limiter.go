package safety

import (
	"fmt"
	"sync"
	"time"
)

// Config holds the trade pacing limits.
type Config struct {
	SignalCheckInterval int   `json:"signal_check_interval"` // seconds between signal evaluations per symbol
	OrderCooldown       int   `json:"order_cooldown"`        // seconds between orders per symbol
	MaxDailyOrders      int   `json:"max_daily_orders"`
	TradingHoursStart   int   `json:"trading_hours_start"` // inclusive hour, local time
	TradingHoursEnd     int   `json:"trading_hours_end"`   // exclusive hour
	TradingDays         []int `json:"trading_days"`        // 1=Monday .. 7=Sunday
}

// DefaultConfig returns the stock pacing limits.
func DefaultConfig() Config {
	return Config{
		SignalCheckInterval: 300,
		OrderCooldown:       1800,
		MaxDailyOrders:      10,
		TradingHoursStart:   9,
		TradingHoursEnd:     21,
		TradingDays:         []int{1, 2, 3, 4, 5},
	}
}

// TradeLimiter throttles signal evaluation and order placement:
// per-symbol signal and order cooldowns, a global daily order cap that
// resets at midnight, and a trading-hours window. It is not a generic
// token bucket; every rule here maps to one of the configured limits.
type TradeLimiter struct {
	cfg Config

	mu            sync.Mutex
	lastSignals   map[string]time.Time
	lastOrders    map[string]time.Time
	dailyOrders   int
	lastResetDate time.Time

	now func() time.Time
}

// NewTradeLimiter creates a limiter with zero history.
func NewTradeLimiter(cfg Config) *TradeLimiter {
	l := &TradeLimiter{
		cfg:         cfg,
		lastSignals: make(map[string]time.Time),
		lastOrders:  make(map[string]time.Time),
		now:         time.Now,
	}
	l.lastResetDate = dateOf(l.now())
	return l
}

// CanCheckSignal reports whether a signal evaluation is allowed for
// the symbol: the per-symbol check interval must have elapsed and the
// clock must be inside the trading window.
func (l *TradeLimiter) CanCheckSignal(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.lastSignals[symbol]; ok {
		if now.Sub(last) < time.Duration(l.cfg.SignalCheckInterval)*time.Second {
			return false
		}
	}
	return l.isTradingTime(now)
}

// CanPlaceOrder reports whether an order is allowed for the symbol.
// Checks run in order: daily counter rollover, daily cap, per-symbol
// cooldown, trading window.
func (l *TradeLimiter) CanPlaceOrder(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rolloverLocked(now)

	if l.dailyOrders >= l.cfg.MaxDailyOrders {
		return false
	}
	if last, ok := l.lastOrders[symbol]; ok {
		if now.Sub(last) < time.Duration(l.cfg.OrderCooldown)*time.Second {
			return false
		}
	}
	return l.isTradingTime(now)
}

// RegisterSignal records a signal evaluation for the symbol.
func (l *TradeLimiter) RegisterSignal(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSignals[symbol] = l.now()
}

// RegisterOrder records a placed order for the symbol and bumps the
// daily counter.
func (l *TradeLimiter) RegisterOrder(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rolloverLocked(now)
	l.lastOrders[symbol] = now
	l.dailyOrders++
}

// NextOrderTime returns the earliest moment an order may be placed for
// the symbol, ignoring the daily cap and trading window.
func (l *TradeLimiter) NextOrderTime(symbol string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastOrders[symbol]
	if !ok {
		return l.now()
	}
	return last.Add(time.Duration(l.cfg.OrderCooldown) * time.Second)
}

// Status is a point-in-time view of the limiter for reporting.
type Status struct {
	DailyOrders    int
	MaxDailyOrders int
	TradingHours   string
	IsTradingTime  bool
}

// CurrentStatus returns the limiter state for the status table.
func (l *TradeLimiter) CurrentStatus() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rolloverLocked(now)
	return Status{
		DailyOrders:    l.dailyOrders,
		MaxDailyOrders: l.cfg.MaxDailyOrders,
		TradingHours:   fmt.Sprintf("%02d:00-%02d:00", l.cfg.TradingHoursStart, l.cfg.TradingHoursEnd),
		IsTradingTime:  l.isTradingTime(now),
	}
}

// isTradingTime checks the weekday and hour window. Days are numbered
// 1=Monday..7=Sunday.
func (l *TradeLimiter) isTradingTime(now time.Time) bool {
	day := isoWeekday(now.Weekday())
	allowed := false
	for _, d := range l.cfg.TradingDays {
		if d == day {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	h := now.Hour()
	return l.cfg.TradingHoursStart <= h && h < l.cfg.TradingHoursEnd
}

func (l *TradeLimiter) rolloverLocked(now time.Time) {
	if today := dateOf(now); !today.Equal(l.lastResetDate) {
		l.dailyOrders = 0
		l.lastResetDate = today
	}
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
