package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// TelegramNotifier sends trading events to a Telegram chat.
type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) NotifySignal(sig *types.Signal) error {
	msg := fmt.Sprintf("📊 *Signal* %s %s\nPrice: %.4f\nStrength: %.1f\nSL: %.4f  TP: %.4f",
		sig.Side, sig.Symbol, sig.Price, sig.Strength, sig.StopLoss, sig.TakeProfit)
	return t.send(msg)
}

func (t *TelegramNotifier) NotifyTradeOpened(pos *types.Position) error {
	msg := fmt.Sprintf("✅ *Opened* %s %s\nEntry: %.4f\nQty: %.6f\nSL: %.4f  TP: %.4f",
		pos.Side, pos.Symbol, pos.EntryPrice, pos.Quantity, pos.StopLoss, pos.TakeProfit)
	return t.send(msg)
}

func (t *TelegramNotifier) NotifyTradeClosed(res *types.TradeResult) error {
	emoji := "💰"
	if res.PnL < 0 {
		emoji = "🔻"
	}
	msg := fmt.Sprintf("%s *Closed* %s %s (%s)\nEntry: %.4f  Exit: %.4f\nPnL: %.4f\nHeld: %s",
		emoji, res.Side, res.Symbol, res.Reason,
		res.EntryPrice, res.ExitPrice, res.PnL, res.Duration().Round(time.Second))
	return t.send(msg)
}

func (t *TelegramNotifier) NotifyError(component string, err error) error {
	return t.send(fmt.Sprintf("🚨 *Error* in %s\n%s", component, err))
}

func (t *TelegramNotifier) send(text string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
