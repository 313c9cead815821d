package notifications

import (
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// Notifier delivers trading events to an external channel.
type Notifier interface {
	NotifySignal(sig *types.Signal) error
	NotifyTradeOpened(pos *types.Position) error
	NotifyTradeClosed(res *types.TradeResult) error
	NotifyError(component string, err error) error
}

// NoopNotifier is used when notifications are disabled.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) NotifySignal(_ *types.Signal) error           { return nil }
func (n *NoopNotifier) NotifyTradeOpened(_ *types.Position) error    { return nil }
func (n *NoopNotifier) NotifyTradeClosed(_ *types.TradeResult) error { return nil }
func (n *NoopNotifier) NotifyError(_ string, _ error) error          { return nil }
