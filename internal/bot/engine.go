package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/config"
	boterrors "github.com/ducminhle1904/crypto-scalp-bot/internal/errors"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/monitoring"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/notifications"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/position"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/pricewindow"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/recorder"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/risk"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/safety"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/strategy"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

const (
	// quoteAsset is the settlement currency all symbols trade against.
	quoteAsset = "USDT"

	// orderTimeout bounds a single exchange call.
	orderTimeout = 15 * time.Second

	// shutdownGrace bounds how long Stop waits for in-flight work.
	shutdownGrace = 30 * time.Second

	// busyPollInterval paces the shutdown wait for an in-flight order.
	busyPollInterval = 50 * time.Millisecond
)

// Deps are the external collaborators the engine drives.
type Deps struct {
	Feed     exchange.MarketFeed
	Executor exchange.OrderExecutor
	Account  exchange.AccountService
	Journal  recorder.Recorder
	Notifier notifications.Notifier
	Health   *monitoring.HealthChecker
	Logger   *zap.Logger
}

// symbolState is everything the engine tracks per symbol. The mutex
// serializes all decisions for the symbol; busy marks an exchange call
// in flight so candles arriving meanwhile are dropped instead of queued.
type symbolState struct {
	mu        sync.Mutex
	window    *pricewindow.Window
	lastPrice float64
	busy      bool
}

// Engine is the decision core: it consumes closed candles, runs the
// indicator and signal pipeline behind the risk and pacing gates, and
// drives the position lifecycle. One engine handles all symbols.
type Engine struct {
	cfg *config.Config
	log *zap.Logger

	feed     exchange.MarketFeed
	executor exchange.OrderExecutor
	account  exchange.AccountService
	journal  recorder.Recorder
	notifier notifications.Notifier
	health   *monitoring.HealthChecker

	indicators *indicators.Engine
	signals    *strategy.Generator
	riskMgr    *risk.Manager
	positions  *position.Tracker
	limiter    *safety.TradeLimiter

	states map[string]*symbolState

	balanceMu sync.RWMutex
	balance   float64

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// NewEngine wires the decision core from configuration.
func NewEngine(cfg *config.Config, deps Deps) *Engine {
	states := make(map[string]*symbolState, len(cfg.Strategy.Symbols))
	for _, s := range cfg.Strategy.Symbols {
		states[s] = &symbolState{window: pricewindow.New(s, cfg.Strategy.WindowSize)}
	}

	return &Engine{
		cfg:        cfg,
		log:        deps.Logger.Named("engine"),
		feed:       deps.Feed,
		executor:   deps.Executor,
		account:    deps.Account,
		journal:    deps.Journal,
		notifier:   deps.Notifier,
		health:     deps.Health,
		indicators: indicators.NewEngine(cfg.Strategy.Indicators),
		signals:    strategy.NewGenerator(cfg.Strategy.Signals),
		riskMgr:    risk.NewManager(cfg.Risk),
		positions:  position.NewTracker(cfg.Strategy.ExitRules()),
		limiter:    safety.NewTradeLimiter(cfg.Limits),
		states:     states,
		cron:       cron.New(),
		now:        time.Now,
	}
}

// Start warms up the candle windows, starts the periodic jobs and
// subscribes to the live candle stream. It returns once the engine is
// running; Stop shuts it down.
func (e *Engine) Start(ctx context.Context) error {
	e.runCtx, e.cancel = context.WithCancel(ctx)

	if err := e.warmUp(e.runCtx); err != nil {
		return err
	}
	e.refreshBalance(e.runCtx)
	e.log.Info("engine starting\n" + renderStartupTable(e.cfg))

	if _, err := e.cron.AddFunc("@every "+e.cfg.Strategy.CheckEvery().String(), e.tick); err != nil {
		return boterrors.Wrap(err, boterrors.CategoryConfig, "engine", "schedule_tick")
	}
	if _, err := e.cron.AddFunc("0 0 * * *", e.logDailySummary); err != nil {
		return boterrors.Wrap(err, boterrors.CategoryConfig, "engine", "schedule_summary")
	}
	e.cron.Start()

	e.wg.Add(1)
	go e.streamLoop()

	return nil
}

// Stop cancels the stream, flattens any open positions and waits for
// in-flight work, bounded by the grace period.
func (e *Engine) Stop() {
	e.log.Info("engine stopping")
	e.cancel()

	cronDone := e.cron.Stop()
	select {
	case <-cronDone.Done():
	case <-time.After(shutdownGrace):
		e.log.Warn("cron jobs did not finish within grace period")
	}

	e.closeAllPositions()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		e.log.Warn("stream worker did not finish within grace period")
	}

	e.logDailySummary()
	e.log.Info("engine stopped")
}

// OnCandle processes one closed candle for its symbol. Designed to be
// called from the stream goroutine; all per-symbol work is serialized.
func (e *Engine) OnCandle(c types.Candle) {
	st, ok := e.states[c.Symbol]
	if !ok {
		e.log.Warn("candle for unknown symbol", zap.String("symbol", c.Symbol))
		return
	}

	monitoring.UpdatePrice(c.Symbol, c.Close)
	if e.health != nil {
		e.health.CandleSeen(e.now())
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.busy {
		e.log.Debug("order in flight, dropping candle", zap.String("symbol", c.Symbol))
		return
	}
	if err := st.window.Append(c); err != nil {
		monitoring.RecordError(string(boterrors.CategoryData))
		e.log.Debug("rejected candle", zap.String("symbol", c.Symbol), zap.Error(err))
		return
	}
	st.lastPrice = c.Close

	snap := e.snapshot(st)

	if e.positions.HasOpen(c.Symbol) {
		e.manageLocked(st, c.Symbol, c.Close, snap)
		return
	}
	e.tryEnterLocked(st, c.Symbol, snap)
}

// snapshot computes the indicator snapshot for the symbol's window,
// or nil while the window is still filling.
func (e *Engine) snapshot(st *symbolState) *indicators.Snapshot {
	snap, err := e.indicators.Compute(st.window.Snapshot())
	if err != nil {
		return nil
	}
	return snap
}

// manageLocked runs the exit checks for an open position. st.mu is held
// on entry and on return; it is released around the exchange call.
func (e *Engine) manageLocked(st *symbolState, symbol string, price float64, snap *indicators.Snapshot) {
	dec := e.positions.Manage(symbol, price, snap, e.now())
	if dec == nil {
		return
	}

	st.busy = true
	st.mu.Unlock()
	e.closePosition(symbol, dec.Price, dec.Reason)
	st.mu.Lock()
	st.busy = false
}

// tryEnterLocked runs the entry pipeline: pacing gate, signal
// evaluation, risk validation, sizing, then the order. st.mu is held on
// entry and on return.
func (e *Engine) tryEnterLocked(st *symbolState, symbol string, snap *indicators.Snapshot) {
	if snap == nil {
		return
	}
	if !e.limiter.CanCheckSignal(symbol) {
		return
	}
	e.limiter.RegisterSignal(symbol)

	sig := e.signals.Evaluate(symbol, snap, false)
	if sig == nil {
		return
	}
	monitoring.RecordSignal(symbol, sig.Side.String())
	e.log.Info("signal generated",
		zap.String("symbol", symbol),
		zap.String("side", sig.Side.String()),
		zap.Float64("price", sig.Price),
		zap.Float64("strength", sig.Strength))

	balance := e.currentBalance()
	if err := e.riskMgr.Validate(sig, e.positions.Count(), balance); err != nil {
		var rej *risk.Rejection
		if errors.As(err, &rej) {
			monitoring.RecordRiskRejection(string(rej.Reason))
		}
		e.log.Info("signal rejected by risk checks",
			zap.String("symbol", symbol), zap.Error(err))
		return
	}
	if !e.limiter.CanPlaceOrder(symbol) {
		e.log.Debug("order blocked by pacing limits", zap.String("symbol", symbol))
		return
	}

	quantity := e.riskMgr.PositionSize(sig.Price, sig.StopLoss, balance)
	if quantity <= 0 {
		return
	}
	e.riskMgr.ClampStopLoss(sig, quantity, balance)

	st.busy = true
	st.mu.Unlock()
	e.openPosition(sig, quantity)
	st.mu.Lock()
	st.busy = false
}

// openPosition places the entry order and commits the new position.
func (e *Engine) openPosition(sig *types.Signal, quantity float64) {
	if err := e.journal.RecordSignal(sig); err != nil {
		e.log.Warn("failed to record signal", zap.Error(err))
	}
	if err := e.notifier.NotifySignal(sig); err != nil {
		e.log.Warn("signal notification failed", zap.Error(err))
	}

	ctx, cancelOrder := context.WithTimeout(context.Background(), orderTimeout)
	defer cancelOrder()

	order, err := e.executor.PlaceMarketOrder(ctx, sig.Symbol, sig.Side, quantity)
	if err != nil {
		e.reportError("open_position", err)
		return
	}

	entryPrice := order.AvgPrice
	if entryPrice <= 0 {
		entryPrice = sig.Price
	}
	pos := types.Position{
		Symbol:         sig.Symbol,
		Side:           sig.Side,
		EntryPrice:     entryPrice,
		Quantity:       order.ExecutedQty,
		StopLoss:       sig.StopLoss,
		TakeProfit:     sig.TakeProfit,
		OpenedAt:       e.now(),
		SignalStrength: sig.Strength,
	}
	if err := e.positions.Open(pos); err != nil {
		e.reportError("open_position", err)
		return
	}

	e.limiter.RegisterOrder(sig.Symbol)
	e.riskMgr.MarkTradeOpened(e.now())
	monitoring.SetOpenPositions(e.positions.Count())

	e.log.Info("position opened",
		zap.String("symbol", pos.Symbol),
		zap.String("side", pos.Side.String()),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("quantity", pos.Quantity),
		zap.Float64("stop_loss", pos.StopLoss),
		zap.Float64("take_profit", pos.TakeProfit))

	if err := e.notifier.NotifyTradeOpened(&pos); err != nil {
		e.log.Warn("open notification failed", zap.Error(err))
	}
}

// closePosition places the flattening order and commits the close. On
// order failure the position stays open and the next candle retries.
func (e *Engine) closePosition(symbol string, price float64, reason types.CloseReason) {
	pos, ok := e.positions.Get(symbol)
	if !ok {
		return
	}

	ctx, cancelOrder := context.WithTimeout(context.Background(), orderTimeout)
	defer cancelOrder()

	order, err := e.executor.PlaceMarketOrder(ctx, symbol, pos.Side.Opposite(), pos.Quantity)
	if err != nil {
		e.reportError("close_position", err)
		return
	}

	exitPrice := order.AvgPrice
	if exitPrice <= 0 {
		exitPrice = price
	}
	res, err := e.positions.Close(symbol, exitPrice, reason, e.now())
	if err != nil {
		e.reportError("close_position", err)
		return
	}

	e.riskMgr.RecordResult(res.PnL)
	monitoring.RecordTrade(res.Symbol, res.Side.String(), string(res.Reason), res.PnL)
	monitoring.SetOpenPositions(e.positions.Count())
	monitoring.SetDailyPnL(e.riskMgr.Stats().RealizedPnL)

	e.log.Info("position closed",
		zap.String("symbol", res.Symbol),
		zap.String("reason", string(res.Reason)),
		zap.Float64("exit", res.ExitPrice),
		zap.Float64("pnl", res.PnL),
		zap.Duration("held", res.Duration()))

	if err := e.journal.RecordTrade(&res); err != nil {
		e.log.Warn("failed to record trade", zap.Error(err))
	}
	if err := e.notifier.NotifyTradeClosed(&res); err != nil {
		e.log.Warn("close notification failed", zap.Error(err))
	}
}

// tick is the periodic safety net between candles: it refreshes the
// balance and re-checks exit conditions for open positions against the
// latest ticker price.
func (e *Engine) tick() {
	e.refreshBalance(e.runCtx)

	for _, symbol := range e.positions.Symbols() {
		st, ok := e.states[symbol]
		if !ok {
			continue
		}

		ctx, cancelPrice := context.WithTimeout(e.runCtx, orderTimeout)
		price, err := e.account.LastPrice(ctx, symbol)
		cancelPrice()

		st.mu.Lock()
		if st.busy {
			st.mu.Unlock()
			continue
		}
		if err != nil || price <= 0 {
			if err != nil {
				e.log.Warn("ticker price unavailable, using last close",
					zap.String("symbol", symbol), zap.Error(err))
			}
			price = st.lastPrice
		}
		if price <= 0 {
			st.mu.Unlock()
			continue
		}
		if e.positions.HasOpen(symbol) {
			e.manageLocked(st, symbol, price, e.snapshot(st))
		}
		st.mu.Unlock()
	}

	e.log.Debug("status\n" + renderStatusTable(e.riskMgr.Stats(), e.limiter.CurrentStatus(), e.openPositionList()))
}

// streamLoop runs the websocket subscription until shutdown.
func (e *Engine) streamLoop() {
	defer e.wg.Done()

	if e.health != nil {
		e.health.SetFeedConnected(true)
		defer e.health.SetFeedConnected(false)
	}

	err := e.feed.StreamCandles(e.runCtx, e.cfg.Strategy.Symbols, e.cfg.Strategy.Interval, e.OnCandle)
	if err != nil && e.runCtx.Err() == nil {
		e.reportError("candle_stream", err)
	}
}

// warmUp seeds each symbol's window with historical candles so the
// indicators are live from the first streamed candle.
func (e *Engine) warmUp(ctx context.Context) error {
	for symbol, st := range e.states {
		candles, err := e.feed.HistoricalCandles(ctx, symbol, e.cfg.Strategy.Interval, e.cfg.Strategy.WindowSize)
		if err != nil {
			return err
		}
		st.mu.Lock()
		for _, c := range candles {
			if err := st.window.Append(c); err != nil {
				st.mu.Unlock()
				return err
			}
		}
		if last, ok := st.window.Last(); ok {
			st.lastPrice = last.Close
			monitoring.UpdatePrice(symbol, last.Close)
		}
		st.mu.Unlock()
		e.log.Info("window warmed up",
			zap.String("symbol", symbol), zap.Int("candles", len(candles)))
	}
	return nil
}

// closeAllPositions flattens everything on shutdown. Each symbol goes
// through the same busy guard as candle-driven closes: an order already
// in flight is waited out, bounded by the grace period, so a position
// is never flattened twice.
func (e *Engine) closeAllPositions() {
	deadline := time.Now().Add(shutdownGrace)
	for _, symbol := range e.positions.Symbols() {
		st, ok := e.states[symbol]
		if !ok {
			continue
		}

		st.mu.Lock()
		for st.busy && time.Now().Before(deadline) {
			st.mu.Unlock()
			time.Sleep(busyPollInterval)
			st.mu.Lock()
		}
		if st.busy {
			st.mu.Unlock()
			e.log.Warn("order still in flight, leaving position to the exchange",
				zap.String("symbol", symbol))
			continue
		}
		if !e.positions.HasOpen(symbol) {
			st.mu.Unlock()
			continue
		}
		lastPrice := st.lastPrice
		st.busy = true
		st.mu.Unlock()

		price := e.tickerPrice(symbol)
		if price <= 0 {
			price = lastPrice
		}
		if price <= 0 {
			if pos, ok := e.positions.Get(symbol); ok {
				price = pos.EntryPrice
			}
		}
		e.closePosition(symbol, price, types.CloseReasonShutdown)

		st.mu.Lock()
		st.busy = false
		st.mu.Unlock()
	}
}

// tickerPrice fetches the latest traded price, or 0 when unavailable.
func (e *Engine) tickerPrice(symbol string) float64 {
	ctx, cancelPrice := context.WithTimeout(context.Background(), orderTimeout)
	defer cancelPrice()

	price, err := e.account.LastPrice(ctx, symbol)
	if err != nil {
		return 0
	}
	return price
}

func (e *Engine) refreshBalance(ctx context.Context) {
	callCtx, cancelCall := context.WithTimeout(ctx, orderTimeout)
	defer cancelCall()

	balance, err := e.account.Balance(callCtx, quoteAsset)
	if err != nil {
		e.log.Warn("balance refresh failed", zap.Error(err))
		return
	}
	e.balanceMu.Lock()
	e.balance = balance
	e.balanceMu.Unlock()
}

func (e *Engine) currentBalance() float64 {
	e.balanceMu.RLock()
	defer e.balanceMu.RUnlock()
	return e.balance
}

func (e *Engine) openPositionList() []types.Position {
	symbols := e.positions.Symbols()
	out := make([]types.Position, 0, len(symbols))
	for _, s := range symbols {
		if p, ok := e.positions.Get(s); ok {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) logDailySummary() {
	stats := e.riskMgr.Stats()
	e.log.Info("daily summary",
		zap.Int("trades", stats.Trades),
		zap.Int("wins", stats.Wins),
		zap.Int("losses", stats.Losses),
		zap.Float64("realized_pnl", stats.RealizedPnL))
}

func (e *Engine) reportError(operation string, err error) {
	category := boterrors.CategoryExternal
	retryable := true
	var botErr *boterrors.BotError
	if errors.As(err, &botErr) {
		category = botErr.Category
		retryable = botErr.Retryable()
	}
	monitoring.RecordError(string(category))
	if e.health != nil {
		e.health.ReportError(err)
	}
	e.log.Error("operation failed",
		zap.String("operation", operation),
		zap.Bool("retryable", retryable),
		zap.Error(err))
	if notifyErr := e.notifier.NotifyError(operation, err); notifyErr != nil {
		e.log.Warn("error notification failed", zap.Error(notifyErr))
	}
}
