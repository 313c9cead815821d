package exchange

import (
	"context"
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// OrderResult is the fill report for a placed order.
type OrderResult struct {
	OrderID     int64
	Symbol      string
	Side        types.Side
	ExecutedQty float64
	AvgPrice    float64
	PlacedAt    time.Time
}

// MarketFeed supplies candle data, historical and streaming.
type MarketFeed interface {
	// HistoricalCandles returns up to limit closed candles, oldest
	// first. An in-progress candle at the tail is excluded.
	HistoricalCandles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)

	// StreamCandles delivers closed candles for the symbols to the
	// handler until the context is cancelled. Dropped connections are
	// re-established internally.
	StreamCandles(ctx context.Context, symbols []string, interval string, handler func(types.Candle)) error
}

// OrderExecutor places orders on the exchange.
type OrderExecutor interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, quantity float64) (*OrderResult, error)
}

// AccountService exposes account and ticker queries.
type AccountService interface {
	// Balance returns the free balance of the asset.
	Balance(ctx context.Context, asset string) (float64, error)

	// LastPrice returns the latest traded price for the symbol.
	LastPrice(ctx context.Context, symbol string) (float64, error)
}
