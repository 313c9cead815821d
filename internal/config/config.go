package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/position"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/risk"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/safety"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/strategy"
)

// Config is the complete bot configuration.
type Config struct {
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file,omitempty"` // optional JSON log tee

	Strategy      StrategyConfig     `json:"strategy"`
	Risk          risk.Config        `json:"risk"`
	Limits        safety.Config      `json:"limits"`
	Exchange      ExchangeConfig     `json:"exchange"`
	Notifications NotificationConfig `json:"notifications"`
	Monitoring    MonitoringConfig   `json:"monitoring"`
	Recorder      RecorderConfig     `json:"recorder"`
	Report        ReportConfig       `json:"report"`
}

// StrategyConfig holds the decision-core parameters.
type StrategyConfig struct {
	Symbols       []string `json:"symbols"`
	Interval      string   `json:"interval"`       // kline interval (1m, 5m, ...)
	WindowSize    int      `json:"window_size"`    // candles kept per symbol
	CheckInterval int      `json:"check_interval"` // seconds between periodic position checks

	Indicators indicators.Config `json:"indicators"`
	Signals    strategy.Config   `json:"signals"`
	Exit       ExitConfig        `json:"exit"`
}

// ExitConfig holds the open-position exit parameters.
type ExitConfig struct {
	MaxPositionTime     int     `json:"max_position_time"` // seconds
	EnableTrailingStop  bool    `json:"enable_trailing_stop"`
	TrailingStopPercent float64 `json:"trailing_stop_percent"`
}

// ExchangeConfig holds exchange connectivity settings. Credentials are
// taken from the environment, never from the config file.
type ExchangeConfig struct {
	Name    string `json:"name"`
	Testnet bool   `json:"testnet"`

	APIKey    string `json:"-"`
	APISecret string `json:"-"`
}

// NotificationConfig holds Telegram notification settings.
type NotificationConfig struct {
	Enabled       bool   `json:"enabled"`
	TelegramToken string `json:"telegram_token,omitempty"`
	TelegramChat  string `json:"telegram_chat,omitempty"`
}

// MonitoringConfig holds the metrics and health endpoints.
type MonitoringConfig struct {
	PrometheusPort int `json:"prometheus_port"`
	HealthPort     int `json:"health_port"`
}

// RecorderConfig holds the trade journal database settings.
type RecorderConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ReportConfig holds the Excel trade report settings.
type ReportConfig struct {
	ExcelPath string `json:"excel_path,omitempty"` // written on shutdown when set
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Strategy: StrategyConfig{
			Symbols:       []string{"BTCUSDT"},
			Interval:      "1m",
			WindowSize:    100,
			CheckInterval: 60,
			Indicators:    indicators.DefaultConfig(),
			Signals:       strategy.DefaultConfig(),
			Exit: ExitConfig{
				MaxPositionTime:     600,
				EnableTrailingStop:  true,
				TrailingStopPercent: 0.5,
			},
		},
		Risk:   risk.DefaultConfig(),
		Limits: safety.DefaultConfig(),
		Exchange: ExchangeConfig{
			Name:    "binance",
			Testnet: true,
		},
		Monitoring: MonitoringConfig{
			PrometheusPort: 8080,
			HealthPort:     8081,
		},
		Recorder: RecorderConfig{
			Enabled: true,
			Path:    "data/trades.db",
		},
	}
}

// Load reads a JSON config file. File values overlay the defaults, so
// a partial file is valid. Exchange credentials come from BINANCE_API_KEY
// and BINANCE_API_SECRET.
func Load(configFile string) (*Config, error) {
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}
	if !strings.HasSuffix(configFile, ".json") {
		configFile += ".json"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Exchange.APIKey = os.Getenv("BINANCE_API_KEY")
	cfg.Exchange.APISecret = os.Getenv("BINANCE_API_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if len(c.Strategy.Symbols) == 0 {
		return fmt.Errorf("at least one trading symbol is required")
	}
	for _, s := range c.Strategy.Symbols {
		if s == "" {
			return fmt.Errorf("trading symbol must not be empty")
		}
	}
	if c.Strategy.Interval == "" {
		return fmt.Errorf("kline interval is required")
	}
	if c.Strategy.WindowSize <= 0 {
		return fmt.Errorf("window size must be greater than 0")
	}
	if required := indicators.NewEngine(c.Strategy.Indicators).RequiredCandles(); c.Strategy.WindowSize < required {
		return fmt.Errorf("window size %d is smaller than the %d candles the indicators need", c.Strategy.WindowSize, required)
	}
	if c.Strategy.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be greater than 0")
	}
	if c.Strategy.Signals.StopLossPercent <= 0 || c.Strategy.Signals.TakeProfitPercent <= 0 {
		return fmt.Errorf("stop loss and take profit percents must be greater than 0")
	}
	if c.Strategy.Signals.MinSignalStrength < 0 || c.Strategy.Signals.MinSignalStrength > 100 {
		return fmt.Errorf("min signal strength must be between 0 and 100")
	}
	if c.Risk.MaxPositionFraction <= 0 || c.Risk.MaxPositionFraction > 1 {
		return fmt.Errorf("max position size must be between 0 and 1")
	}
	if c.Risk.MinPositionFraction > c.Risk.MaxPositionFraction {
		return fmt.Errorf("min position size exceeds max position size")
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("max open positions must be greater than 0")
	}
	if c.Limits.SignalCheckInterval < 0 || c.Limits.OrderCooldown < 0 {
		return fmt.Errorf("signal check interval and order cooldown must not be negative")
	}
	if c.Limits.MaxDailyOrders <= 0 {
		return fmt.Errorf("max daily orders must be greater than 0")
	}
	if c.Limits.TradingHoursStart < 0 || c.Limits.TradingHoursEnd > 24 ||
		c.Limits.TradingHoursStart >= c.Limits.TradingHoursEnd {
		return fmt.Errorf("trading hours %d-%d are not a valid window", c.Limits.TradingHoursStart, c.Limits.TradingHoursEnd)
	}
	for _, d := range c.Limits.TradingDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("trading day %d is out of range 1-7", d)
		}
	}
	if c.Exchange.Name != "binance" {
		return fmt.Errorf("unsupported exchange %q", c.Exchange.Name)
	}
	if c.Notifications.Enabled && (c.Notifications.TelegramToken == "" || c.Notifications.TelegramChat == "") {
		return fmt.Errorf("telegram token and chat id are required when notifications are enabled")
	}
	if c.Recorder.Enabled && c.Recorder.Path == "" {
		return fmt.Errorf("recorder path is required when the recorder is enabled")
	}
	return nil
}

// ExitRules maps the strategy section onto the position tracker config.
// The RSI exit thresholds reuse the indicator section's levels.
func (s StrategyConfig) ExitRules() position.Config {
	return position.Config{
		MaxPositionTime:     time.Duration(s.Exit.MaxPositionTime) * time.Second,
		EnableTrailingStop:  s.Exit.EnableTrailingStop,
		TrailingStopPercent: s.Exit.TrailingStopPercent,
		RSIOverbought:       s.Indicators.RSIOverbought,
		RSIOversold:         s.Indicators.RSIOversold,
	}
}

// CheckEvery returns the periodic position check interval.
func (s StrategyConfig) CheckEvery() time.Duration {
	return time.Duration(s.CheckInterval) * time.Second
}
