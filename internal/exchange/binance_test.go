package exchange

import (
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterrors "github.com/ducminhle1904/crypto-scalp-bot/internal/errors"
)

func TestKlineToCandle(t *testing.T) {
	closeTime := time.Date(2024, 3, 4, 12, 0, 59, 0, time.UTC)
	k := &binance.Kline{
		Open:      "100.5",
		High:      "101.0",
		Low:       "99.5",
		Close:     "100.8",
		Volume:    "1234.56",
		CloseTime: closeTime.UnixMilli(),
	}

	c, err := klineToCandle("BTCUSDT", k)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", c.Symbol)
	assert.Equal(t, 100.5, c.Open)
	assert.Equal(t, 101.0, c.High)
	assert.Equal(t, 99.5, c.Low)
	assert.Equal(t, 100.8, c.Close)
	assert.Equal(t, 1234.56, c.Volume)
	assert.True(t, c.Timestamp.Equal(closeTime))
}

func TestKlineToCandle_MalformedPrice(t *testing.T) {
	k := &binance.Kline{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1"}

	_, err := klineToCandle("BTCUSDT", k)
	require.Error(t, err)
	assert.True(t, boterrors.HasCategory(err, boterrors.CategoryExternal))
}

func TestWsKlineToCandle(t *testing.T) {
	end := time.Date(2024, 3, 4, 12, 1, 59, 0, time.UTC)
	k := binance.WsKline{
		Symbol:  "ETHUSDT",
		Open:    "2000",
		High:    "2010",
		Low:     "1990",
		Close:   "2005",
		Volume:  "50",
		EndTime: end.UnixMilli(),
	}

	c, err := wsKlineToCandle(k)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", c.Symbol)
	assert.Equal(t, 2005.0, c.Close)
	assert.True(t, c.Timestamp.Equal(end))
}
