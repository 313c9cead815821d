package types

import "time"

// Signal is a directional trade proposal. It is consumed immediately by
// the risk manager or discarded; nothing holds on to it.
type Signal struct {
	Symbol      string
	Side        Side
	Price       float64
	Strength    float64 // 0..100
	StopLoss    float64
	TakeProfit  float64
	GeneratedAt time.Time
}

// Position is an open trade for one symbol. At most one exists per symbol
// at any time. Only the position tracker mutates it (trailing stop).
type Position struct {
	Symbol         string
	Side           Side
	EntryPrice     float64
	Quantity       float64
	StopLoss       float64
	TakeProfit     float64
	OpenedAt       time.Time
	SignalStrength float64
}

// Notional returns the position value at entry.
func (p Position) Notional() float64 {
	return p.EntryPrice * p.Quantity
}

// UnrealizedPnL returns the mark-to-market profit at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideBuy {
		return (price - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - price) * p.Quantity
}

// CloseReason says why a position was flattened. Exit checks run in a
// fixed priority order, so exactly one reason is ever reported.
type CloseReason string

const (
	CloseReasonStopLoss      CloseReason = "STOP_LOSS"
	CloseReasonTakeProfit    CloseReason = "TAKE_PROFIT"
	CloseReasonMaxTime       CloseReason = "MAX_TIME"
	CloseReasonTechnicalExit CloseReason = "TECHNICAL_EXIT"
	CloseReasonShutdown      CloseReason = "SHUTDOWN"
)

// TradeResult is the record of a completed round trip.
type TradeResult struct {
	Symbol         string
	Side           Side
	EntryPrice     float64
	ExitPrice      float64
	Quantity       float64
	PnL            float64
	OpenedAt       time.Time
	ClosedAt       time.Time
	Reason         CloseReason
	SignalStrength float64
}

// Duration returns how long the position was held.
func (t TradeResult) Duration() time.Duration {
	return t.ClosedAt.Sub(t.OpenedAt)
}
