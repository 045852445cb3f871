// Package config loads analyzer configuration from an optional
// config.json, then applies environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BybitConfig        BybitConfig        `json:"bybit"`
	AnalyzerConfig     AnalyzerConfig     `json:"analyzer"`
	NotificationConfig NotificationConfig `json:"notification"`
	LedgerConfig       LedgerConfig       `json:"ledger"`
	DatabaseConfig     DatabaseConfig     `json:"database"`
	ServerConfig       ServerConfig       `json:"server"`
	VaultConfig        VaultConfig        `json:"vault"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// BybitConfig holds market-data client settings.
type BybitConfig struct {
	BaseURL    string `json:"base_url"`
	Retries    int    `json:"retries"`
	TimeoutSec int    `json:"timeout_sec"`
}

// AnalyzerConfig holds the symbol list, indicator windows, and cadence.
type AnalyzerConfig struct {
	Symbols          []string `json:"symbols"`
	MAShortWindow    int      `json:"ma_short_window"`
	MALongWindow     int      `json:"ma_long_window"`
	ATRWindow        int      `json:"atr_window"`
	VolumeWindow     int      `json:"volume_window"`
	KlineLimit       int      `json:"kline_limit"`
	OrderBookDepth   int      `json:"orderbook_depth"`
	TradeLimit       int      `json:"trade_limit"`
	CycleIntervalSec int      `json:"cycle_interval_sec"`
	SymbolPauseSec   int      `json:"symbol_pause_sec"`
	MinProbability   int      `json:"min_probability"`
}

type NotificationConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

// LedgerConfig selects the dedup ledger backend.
type LedgerConfig struct {
	Backend  string      `json:"backend"` // "file", "redis", or "memory"
	Path     string      `json:"path"`
	RedisKey string      `json:"redis_key"`
	Redis    RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DatabaseConfig holds the optional Postgres signal history sink.
type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

// Load reads config.json when present, fills defaults, and applies env
// overrides. Env always wins over file values.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if len(cfg.AnalyzerConfig.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BybitConfig.BaseURL == "" {
		cfg.BybitConfig.BaseURL = "https://api.bybit.com"
	}
	if cfg.BybitConfig.Retries == 0 {
		cfg.BybitConfig.Retries = 3
	}
	if cfg.BybitConfig.TimeoutSec == 0 {
		cfg.BybitConfig.TimeoutSec = 10
	}

	a := &cfg.AnalyzerConfig
	if len(a.Symbols) == 0 {
		a.Symbols = []string{"BTCUSDT", "ETHUSDT", "HYPEUSDT", "ETCUSDT"}
	}
	if a.MAShortWindow == 0 {
		a.MAShortWindow = 20
	}
	if a.MALongWindow == 0 {
		a.MALongWindow = 50
	}
	if a.ATRWindow == 0 {
		a.ATRWindow = 14
	}
	if a.VolumeWindow == 0 {
		a.VolumeWindow = 20
	}
	if a.KlineLimit == 0 {
		a.KlineLimit = 200
	}
	if a.OrderBookDepth == 0 {
		a.OrderBookDepth = 50
	}
	if a.TradeLimit == 0 {
		a.TradeLimit = 200
	}
	if a.CycleIntervalSec == 0 {
		a.CycleIntervalSec = 600
	}
	if a.SymbolPauseSec == 0 {
		a.SymbolPauseSec = 2
	}
	if a.MinProbability == 0 {
		a.MinProbability = 40
	}

	if cfg.LedgerConfig.Backend == "" {
		cfg.LedgerConfig.Backend = "file"
	}
	if cfg.LedgerConfig.Path == "" {
		cfg.LedgerConfig.Path = "sent_signals.txt"
	}
	if cfg.LedgerConfig.RedisKey == "" {
		cfg.LedgerConfig.RedisKey = "analyzer:sent_signals"
	}
	if cfg.LedgerConfig.Redis.Address == "" {
		cfg.LedgerConfig.Redis.Address = "localhost:6379"
	}

	if cfg.ServerConfig.Host == "" {
		cfg.ServerConfig.Host = "0.0.0.0"
	}
	if cfg.ServerConfig.Port == 0 {
		cfg.ServerConfig.Port = 8080
	}

	if cfg.VaultConfig.MountPath == "" {
		cfg.VaultConfig.MountPath = "secret"
	}
	if cfg.VaultConfig.SecretPath == "" {
		cfg.VaultConfig.SecretPath = "analyzer/telegram"
	}

	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.BybitConfig.BaseURL = getEnvOrDefault("BYBIT_BASE_URL", cfg.BybitConfig.BaseURL)
	cfg.BybitConfig.Retries = getEnvIntOrDefault("BYBIT_RETRIES", cfg.BybitConfig.Retries)
	cfg.BybitConfig.TimeoutSec = getEnvIntOrDefault("BYBIT_TIMEOUT_SEC", cfg.BybitConfig.TimeoutSec)

	if symbols := os.Getenv("ANALYZER_SYMBOLS"); symbols != "" {
		cfg.AnalyzerConfig.Symbols = splitAndTrim(symbols)
	}
	cfg.AnalyzerConfig.CycleIntervalSec = getEnvIntOrDefault("ANALYZER_CYCLE_INTERVAL_SEC", cfg.AnalyzerConfig.CycleIntervalSec)
	cfg.AnalyzerConfig.SymbolPauseSec = getEnvIntOrDefault("ANALYZER_SYMBOL_PAUSE_SEC", cfg.AnalyzerConfig.SymbolPauseSec)
	cfg.AnalyzerConfig.MinProbability = getEnvIntOrDefault("ANALYZER_MIN_PROBABILITY", cfg.AnalyzerConfig.MinProbability)

	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		cfg.NotificationConfig.Telegram.Enabled = v == "true"
	}
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	cfg.NotificationConfig.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.NotificationConfig.Telegram.ChatID)
	if v := os.Getenv("DISCORD_ENABLED"); v != "" {
		cfg.NotificationConfig.Discord.Enabled = v == "true"
	}
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)

	cfg.LedgerConfig.Backend = getEnvOrDefault("LEDGER_BACKEND", cfg.LedgerConfig.Backend)
	cfg.LedgerConfig.Path = getEnvOrDefault("LEDGER_PATH", cfg.LedgerConfig.Path)
	cfg.LedgerConfig.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.LedgerConfig.Redis.Address)
	cfg.LedgerConfig.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.LedgerConfig.Redis.Password)
	cfg.LedgerConfig.Redis.DB = getEnvIntOrDefault("REDIS_DB", cfg.LedgerConfig.Redis.DB)

	if v := os.Getenv("DATABASE_ENABLED"); v != "" {
		cfg.DatabaseConfig.Enabled = v == "true"
	}
	cfg.DatabaseConfig.DSN = getEnvOrDefault("DATABASE_DSN", cfg.DatabaseConfig.DSN)

	if v := os.Getenv("SERVER_ENABLED"); v != "" {
		cfg.ServerConfig.Enabled = v == "true"
	}
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)

	if v := os.Getenv("VAULT_ENABLED"); v != "" {
		cfg.VaultConfig.Enabled = v == "true"
	}
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", cfg.VaultConfig.MountPath)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
