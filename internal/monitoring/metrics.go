package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalp_bot_signals_total",
			Help: "Total number of entry signals generated",
		},
		[]string{"symbol", "side"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalp_bot_trades_total",
			Help: "Total number of closed trades",
		},
		[]string{"symbol", "side", "reason"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scalp_bot_trade_pnl",
			Help:    "Distribution of per-trade profit and loss",
			Buckets: []float64{-50, -20, -10, -5, -1, 0, 1, 5, 10, 20, 50},
		},
		[]string{"symbol"},
	)

	riskRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalp_bot_risk_rejections_total",
			Help: "Signals rejected by risk checks",
		},
		[]string{"reason"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scalp_bot_open_positions",
			Help: "Number of currently open positions",
		},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scalp_bot_current_price",
			Help: "Last candle close price per symbol",
		},
		[]string{"symbol"},
	)

	dailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scalp_bot_daily_pnl",
			Help: "Realized profit and loss since midnight",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalp_bot_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(riskRejectionsTotal)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(dailyPnL)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler { return &MetricsHandler{} }

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordSignal counts a generated entry signal.
func RecordSignal(symbol, side string) {
	signalsTotal.WithLabelValues(symbol, side).Inc()
}

// RecordTrade counts a closed trade and observes its PnL.
func RecordTrade(symbol, side, reason string, pnl float64) {
	tradesTotal.WithLabelValues(symbol, side, reason).Inc()
	tradePnL.WithLabelValues(symbol).Observe(pnl)
}

// RecordRiskRejection counts a signal blocked by a risk check.
func RecordRiskRejection(reason string) {
	riskRejectionsTotal.WithLabelValues(reason).Inc()
}

// SetOpenPositions updates the open position gauge.
func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

// UpdatePrice updates the last seen close price.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// SetDailyPnL updates the realized daily PnL gauge.
func SetDailyPnL(pnl float64) {
	dailyPnL.Set(pnl)
}

// RecordError counts an error by category.
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
