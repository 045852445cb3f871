package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bybit-analyzer-bot/config"
	"bybit-analyzer-bot/internal/api"
	"bybit-analyzer-bot/internal/bybit"
	"bybit-analyzer-bot/internal/database"
	"bybit-analyzer-bot/internal/ledger"
	"bybit-analyzer-bot/internal/logging"
	"bybit-analyzer-bot/internal/notification"
	"bybit-analyzer-bot/internal/scanner"
	"bybit-analyzer-bot/internal/vault"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LoggingConfig.Level)
	logger.Info().
		Strs("symbols", cfg.AnalyzerConfig.Symbols).
		Int("cycle_interval_sec", cfg.AnalyzerConfig.CycleIntervalSec).
		Msg("Starting Bybit signal analyzer")

	// Vault-held Telegram credentials take precedence over config/env
	if cfg.VaultConfig.Enabled {
		vc, err := vault.NewClient(vault.Config{
			Enabled:    cfg.VaultConfig.Enabled,
			Address:    cfg.VaultConfig.Address,
			Token:      cfg.VaultConfig.Token,
			MountPath:  cfg.VaultConfig.MountPath,
			SecretPath: cfg.VaultConfig.SecretPath,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Vault client")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		creds, found, err := vc.TelegramCredentials(ctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read Telegram credentials from Vault")
		}
		if found {
			cfg.NotificationConfig.Telegram.BotToken = creds.BotToken
			cfg.NotificationConfig.Telegram.ChatID = creds.ChatID
			logger.Info().Msg("Telegram credentials loaded from Vault")
		}
	}

	notifyManager := notification.NewManager()
	if cfg.NotificationConfig.Telegram.Enabled {
		notifyManager.AddNotifier(notification.NewTelegramNotifier(notification.TelegramConfig{
			BotToken: cfg.NotificationConfig.Telegram.BotToken,
			ChatID:   cfg.NotificationConfig.Telegram.ChatID,
			Enabled:  cfg.NotificationConfig.Telegram.Enabled,
		}))
		logger.Info().Msg("Telegram notifications enabled")
	}
	if cfg.NotificationConfig.Discord.Enabled {
		notifyManager.AddNotifier(notification.NewDiscordNotifier(notification.DiscordConfig{
			WebhookURL: cfg.NotificationConfig.Discord.WebhookURL,
			Enabled:    cfg.NotificationConfig.Discord.Enabled,
		}))
		logger.Info().Msg("Discord notifications enabled")
	}

	sentLedger, err := buildLedger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize signal ledger")
	}

	var history *database.History
	if cfg.DatabaseConfig.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		history, err = database.NewHistory(ctx, cfg.DatabaseConfig.DSN)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to signal history database")
		}
		defer history.Close()
		logger.Info().Msg("Signal history database connected")
	}

	client := bybit.NewClient(
		cfg.BybitConfig.BaseURL,
		cfg.BybitConfig.Retries,
		time.Duration(cfg.BybitConfig.TimeoutSec)*time.Second,
		logging.NewComponent(logger, "bybit"),
	)

	var recorder scanner.Recorder
	if history != nil {
		recorder = history
	}
	gate := scanner.NewGate(sentLedger, notifyManager, recorder,
		cfg.AnalyzerConfig.MinProbability, logging.NewComponent(logger, "gate"))

	sc := scanner.New(client, gate, scanner.Config{
		Symbols:        cfg.AnalyzerConfig.Symbols,
		KlineLimit:     cfg.AnalyzerConfig.KlineLimit,
		OrderBookDepth: cfg.AnalyzerConfig.OrderBookDepth,
		TradeLimit:     cfg.AnalyzerConfig.TradeLimit,
		MAShortWindow:  cfg.AnalyzerConfig.MAShortWindow,
		MALongWindow:   cfg.AnalyzerConfig.MALongWindow,
		ATRWindow:      cfg.AnalyzerConfig.ATRWindow,
		VolumeWindow:   cfg.AnalyzerConfig.VolumeWindow,
		CycleInterval:  time.Duration(cfg.AnalyzerConfig.CycleIntervalSec) * time.Second,
		SymbolPause:    time.Duration(cfg.AnalyzerConfig.SymbolPauseSec) * time.Second,
		MinProbability: cfg.AnalyzerConfig.MinProbability,
	}, logging.NewComponent(logger, "scanner"))

	var server *api.Server
	if cfg.ServerConfig.Enabled {
		server = api.NewServer(sc, cfg.ServerConfig.Host, cfg.ServerConfig.Port,
			logging.NewComponent(logger, "api"))
		sc.SetBroadcast(server.Hub().BroadcastEvaluation)
		server.Start()
		logger.Info().
			Str("host", cfg.ServerConfig.Host).
			Int("port", cfg.ServerConfig.Port).
			Msg("Status API started")
	}

	startupMsg := fmt.Sprintf("🤖 Analyzer started\nSymbols: %v\nCycle: %ds",
		cfg.AnalyzerConfig.Symbols, cfg.AnalyzerConfig.CycleIntervalSec)
	if err := notifyManager.Send(startupMsg); err != nil {
		logger.Warn().Err(err).Msg("Startup notification failed")
	}

	sc.Start()
	logger.Info().Msg("Scanner started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	sc.Stop()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("API shutdown error")
		}
		cancel()
	}
	if closer, ok := sentLedger.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn().Err(err).Msg("Ledger close error")
		}
	}
	logger.Info().Msg("Shutdown complete")
}

// buildLedger selects the dedup ledger backend from configuration.
// A backend that cannot load its existing state is a startup error,
// not a silent reset, so a restart never double-sends old signals.
func buildLedger(cfg *config.Config) (ledger.Ledger, error) {
	switch cfg.LedgerConfig.Backend {
	case "file":
		return ledger.NewFileLedger(cfg.LedgerConfig.Path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.LedgerConfig.Redis.Address,
			Password: cfg.LedgerConfig.Redis.Password,
			DB:       cfg.LedgerConfig.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ledger.NewRedisLedger(ctx, rdb, cfg.LedgerConfig.RedisKey)
	case "memory":
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerConfig.Backend)
	}
}
