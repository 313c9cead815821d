package exchange

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	boterrors "github.com/ducminhle1904/crypto-scalp-bot/internal/errors"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// reconnectDelay is the pause before re-dialing a dropped kline stream.
const reconnectDelay = 5 * time.Second

// BinanceClient implements MarketFeed, OrderExecutor and AccountService
// against the Binance spot API.
type BinanceClient struct {
	client *binance.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewBinanceClient creates a client. Testnet switches both the REST and
// websocket endpoints and must be set before any other client exists.
func NewBinanceClient(apiKey, apiSecret string, testnet bool, log *zap.Logger) *BinanceClient {
	binance.UseTestnet = testnet
	return &BinanceClient{
		client: binance.NewClient(apiKey, apiSecret),
		log:    log.Named("binance"),
		now:    time.Now,
	}
}

// HistoricalCandles fetches closed klines, oldest first. Binance
// includes the currently forming kline at the tail; it is dropped so
// indicator input only ever contains finished candles.
func (c *BinanceClient) HistoricalCandles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	klines, err := c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, boterrors.WrapExternal(err, "binance", "klines")
	}

	candles := make([]types.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := klineToCandle(symbol, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	// Drop the in-progress candle at the tail.
	for len(candles) > 0 && candles[len(candles)-1].Timestamp.After(c.now()) {
		candles = candles[:len(candles)-1]
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// StreamCandles subscribes to the combined kline stream and forwards
// closed candles to the handler. The loop re-dials after stream errors
// and returns when the context is cancelled.
func (c *BinanceClient) StreamCandles(ctx context.Context, symbols []string, interval string, handler func(types.Candle)) error {
	pairs := make(map[string]string, len(symbols))
	for _, s := range symbols {
		pairs[s] = interval
	}

	for {
		streamErr := make(chan error, 1)
		wsHandler := func(event *binance.WsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}
			candle, err := wsKlineToCandle(event.Kline)
			if err != nil {
				c.log.Warn("dropping malformed kline",
					zap.String("symbol", event.Symbol), zap.Error(err))
				return
			}
			handler(candle)
		}
		errHandler := func(err error) {
			select {
			case streamErr <- err:
			default:
			}
		}

		doneC, stopC, err := binance.WsCombinedKlineServe(pairs, wsHandler, errHandler)
		if err != nil {
			c.log.Warn("kline stream dial failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
				continue
			}
		}

		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			return ctx.Err()
		case err := <-streamErr:
			c.log.Warn("kline stream error, reconnecting", zap.Error(err))
			close(stopC)
			<-doneC
		case <-doneC:
			c.log.Warn("kline stream closed, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// PlaceMarketOrder submits a market order and reports the fill.
func (c *BinanceClient) PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, quantity float64) (*OrderResult, error) {
	binanceSide := binance.SideTypeBuy
	if side == types.SideSell {
		binanceSide = binance.SideTypeSell
	}

	resp, err := c.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binanceSide).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return nil, boterrors.WrapExternal(err, "binance", "create_order")
	}

	executed, err := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if err != nil {
		return nil, boterrors.WrapExternal(err, "binance", "create_order")
	}
	quote, err := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64)
	if err != nil {
		return nil, boterrors.WrapExternal(err, "binance", "create_order")
	}

	avgPrice := 0.0
	if executed > 0 {
		avgPrice = quote / executed
	}

	c.log.Info("market order filled",
		zap.String("symbol", symbol),
		zap.String("side", side.String()),
		zap.Float64("quantity", executed),
		zap.Float64("avg_price", avgPrice))

	return &OrderResult{
		OrderID:     resp.OrderID,
		Symbol:      symbol,
		Side:        side,
		ExecutedQty: executed,
		AvgPrice:    avgPrice,
		PlacedAt:    time.UnixMilli(resp.TransactTime),
	}, nil
}

// Balance returns the free balance of the asset.
func (c *BinanceClient) Balance(ctx context.Context, asset string) (float64, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, boterrors.WrapExternal(err, "binance", "account")
	}
	for _, b := range account.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			return 0, boterrors.WrapExternal(err, "binance", "account")
		}
		return free, nil
	}
	return 0, nil
}

// LastPrice returns the latest traded price for the symbol.
func (c *BinanceClient) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, boterrors.WrapExternal(err, "binance", "ticker_price")
	}
	if len(prices) == 0 {
		return 0, boterrors.NewDataError("binance", "ticker_price", "no price returned for "+symbol)
	}
	return strconv.ParseFloat(prices[0].Price, 64)
}

func klineToCandle(symbol string, k *binance.Kline) (types.Candle, error) {
	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closing, err4 := strconv.ParseFloat(k.Close, 64)
	volume, err5 := strconv.ParseFloat(k.Volume, 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return types.Candle{}, boterrors.WrapExternal(err, "binance", "klines")
		}
	}
	return types.Candle{
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closing,
		Volume:    volume,
		Timestamp: time.UnixMilli(k.CloseTime),
	}, nil
}

func wsKlineToCandle(k binance.WsKline) (types.Candle, error) {
	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closing, err4 := strconv.ParseFloat(k.Close, 64)
	volume, err5 := strconv.ParseFloat(k.Volume, 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return types.Candle{}, boterrors.WrapExternal(err, "binance", "kline_stream")
		}
	}
	return types.Candle{
		Symbol:    k.Symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closing,
		Volume:    volume,
		Timestamp: time.UnixMilli(k.EndTime),
	}, nil
}
