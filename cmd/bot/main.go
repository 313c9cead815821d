package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-scalp-bot/internal/bot"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/config"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/monitoring"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/notifications"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/recorder"
	"github.com/ducminhle1904/crypto-scalp-bot/internal/reporting"
	"github.com/ducminhle1904/crypto-scalp-bot/pkg/logger"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file (e.g., btc_1m.json)")
		envFile    = flag.String("env", ".env", "Environment file path")
	)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Please specify a config file with -config flag")
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: could not load %s (%v), using environment as is", *envFile, err)
	}

	fmt.Println("🚀 Scalp Bot Starting...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Exchange.APIKey == "" || cfg.Exchange.APISecret == "" {
		zlog.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET must be set")
	}

	client := exchange.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, zlog)

	var journal recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Recorder.Enabled {
		sqlite, err := recorder.NewSQLiteRecorder(cfg.Recorder.Path, zlog)
		if err != nil {
			zlog.Fatal("failed to open trade journal", zap.Error(err))
		}
		journal = sqlite
	}
	defer journal.Close()

	var notifier notifications.Notifier = notifications.NewNoopNotifier()
	if cfg.Notifications.Enabled {
		notifier = notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChat)
	}

	health := monitoring.NewHealthChecker()
	startMonitoringServers(cfg.Monitoring, health, zlog)

	engine := bot.NewEngine(cfg, bot.Deps{
		Feed:     client,
		Executor: client,
		Account:  client,
		Journal:  journal,
		Notifier: notifier,
		Health:   health,
		Logger:   zlog,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		zlog.Fatal("engine failed to start", zap.Error(err))
	}

	<-ctx.Done()
	zlog.Info("shutdown signal received")
	engine.Stop()

	if cfg.Report.ExcelPath != "" {
		writeReport(journal, cfg.Report.ExcelPath, zlog)
	}

	fmt.Println("👋 Scalp Bot stopped")
}

func startMonitoringServers(cfg config.MonitoringConfig, health *monitoring.HealthChecker, zlog *zap.Logger) {
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
		Handler:           monitoring.NewMetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HealthPort),
		Handler:           health,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("health server stopped", zap.Error(err))
		}
	}()
	zlog.Info("monitoring servers started",
		zap.Int("prometheus_port", cfg.PrometheusPort),
		zap.Int("health_port", cfg.HealthPort))
}

func writeReport(journal recorder.Recorder, path string, zlog *zap.Logger) {
	trades, err := journal.Trades()
	if err != nil {
		zlog.Error("failed to read trades for report", zap.Error(err))
		return
	}
	if len(trades) == 0 {
		zlog.Info("no trades recorded, skipping report")
		return
	}
	if err := reporting.WriteTradeReport(path, trades); err != nil {
		zlog.Error("failed to write trade report", zap.Error(err))
		return
	}
	zlog.Info("trade report written", zap.String("path", path), zap.Int("trades", len(trades)))
}
