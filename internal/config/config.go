package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"binance"`
	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Trading struct {
		Quantity     float64 `yaml:"quantity"`
		PaperTrading bool    `yaml:"paper_trading"`
		TopCoins     int     `yaml:"top_coins"`
	} `yaml:"trading"`
	Futures struct {
		Leverage          int     `yaml:"leverage"`
		MaxTradesPerDay   int     `yaml:"max_trades_per_day"`
		MaxDailyLoss      float64 `yaml:"max_daily_loss"`
		StopLossPercent   float64 `yaml:"stop_loss_percent"`
		TakeProfitPercent float64 `yaml:"take_profit_percent"`
		UseBalancePercent float64 `yaml:"use_balance_percent"`
	} `yaml:"futures"`
	Schedule struct {
		CycleCron string `yaml:"cycle_cron"`
	} `yaml:"schedule"`
	Ledger struct {
		Backend string `yaml:"backend"` // "file" or "sqlite"
		Path    string `yaml:"path"`
	} `yaml:"ledger"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		JournalPath string `yaml:"journal_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then a .env file in the working
// directory, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Binance.APIKey, "BINANCE_API_KEY")
	setString(&cfg.Binance.APISecret, "BINANCE_API_SECRET")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.Proxy, "HTTPS_PROXY")
	setString(&cfg.Schedule.CycleCron, "CYCLE_CRON")
	setString(&cfg.Ledger.Backend, "LEDGER_BACKEND")
	setString(&cfg.Ledger.Path, "LEDGER_PATH")
	setString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Database.JournalPath, "TRADE_LOG_PATH")
	setString(&cfg.Metrics.Addr, "METRICS_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	floats := []struct {
		dst *float64
		key string
	}{
		{&cfg.Trading.Quantity, "TRADE_QUANTITY"},
		{&cfg.Futures.MaxDailyLoss, "FUTURES_MAX_DAILY_LOSS"},
		{&cfg.Futures.StopLossPercent, "FUTURES_STOP_LOSS_PERCENT"},
		{&cfg.Futures.TakeProfitPercent, "FUTURES_TAKE_PROFIT_PERCENT"},
		{&cfg.Futures.UseBalancePercent, "FUTURES_USE_BALANCE_PERCENT"},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("parse %s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.Futures.Leverage, "FUTURES_LEVERAGE"},
		{&cfg.Futures.MaxTradesPerDay, "FUTURES_MAX_TRADES_PER_DAY"},
		{&cfg.Trading.TopCoins, "TOP_COINS"},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", i.key, err)
			}
			*i.dst = n
		}
	}

	// PAPER_TRADING=1 enables simulation, any other value disables it
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		cfg.Trading.PaperTrading = v == "1" || v == "true"
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Trading.Quantity == 0 {
		cfg.Trading.Quantity = 0.001
	}
	if cfg.Trading.TopCoins == 0 {
		cfg.Trading.TopCoins = 5
	}
	if cfg.Futures.Leverage == 0 {
		cfg.Futures.Leverage = 1
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "@every 10m"
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "file"
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "data/futures_daily_stats.json"
	}
	if cfg.Ledger.Backend == "sqlite" && cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coin_sentinel.db"
	}
	if cfg.Database.JournalPath == "" {
		cfg.Database.JournalPath = "data/trade_log.jsonl"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required")
	}
	if c.Binance.APIKey == "" || c.Binance.APISecret == "" {
		return fmt.Errorf("binance.api_key and binance.api_secret are required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Trading.Quantity <= 0 {
		return fmt.Errorf("trading.quantity must be positive")
	}
	if c.Ledger.Backend != "file" && c.Ledger.Backend != "sqlite" {
		return fmt.Errorf("ledger.backend must be \"file\" or \"sqlite\", got %q", c.Ledger.Backend)
	}
	return nil
}
