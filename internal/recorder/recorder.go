package recorder

import (
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Recorder persists signals and completed trades for later analysis.
type Recorder interface {
	RecordSignal(sig *types.Signal) error
	RecordTrade(res *types.TradeResult) error

	// Trades returns all recorded trades, oldest first.
	Trades() ([]types.TradeResult, error)

	Close() error
}

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *types.Signal) error     { return nil }
func (n *NoopRecorder) RecordTrade(_ *types.TradeResult) error { return nil }
func (n *NoopRecorder) Trades() ([]types.TradeResult, error)   { return nil, nil }
func (n *NoopRecorder) Close() error                           { return nil }
