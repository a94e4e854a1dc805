package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BINANCE_API_KEY", "BINANCE_API_SECRET", "GEMINI_API_KEY", "GEMINI_MODEL",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY", "CYCLE_CRON",
	"LEDGER_BACKEND", "LEDGER_PATH", "SQLITE_PATH", "TRADE_LOG_PATH", "METRICS_ADDR",
	"LOG_LEVEL", "TRADE_QUANTITY", "FUTURES_MAX_DAILY_LOSS", "FUTURES_STOP_LOSS_PERCENT",
	"FUTURES_TAKE_PROFIT_PERCENT", "FUTURES_USE_BALANCE_PERCENT", "FUTURES_LEVERAGE",
	"FUTURES_MAX_TRADES_PER_DAY", "TOP_COINS", "PAPER_TRADING",
}

// chdirTemp moves into an empty directory and unsets every variable Load reads.
func chdirTemp(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	dir := chdirTemp(t)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.001, cfg.Trading.Quantity)
	assert.Equal(t, 1, cfg.Futures.Leverage)
	assert.Equal(t, "@every 10m", cfg.Schedule.CycleCron)
	assert.Equal(t, "file", cfg.Ledger.Backend)
	assert.Equal(t, "data/futures_daily_stats.json", cfg.Ledger.Path)
	assert.Empty(t, cfg.Database.SQLitePath)
	assert.False(t, cfg.Trading.PaperTrading)
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
binance:
  api_key: yaml-key
  api_secret: yaml-secret
futures:
  leverage: 3
  max_trades_per_day: 4
  stop_loss_percent: 2.5
ledger:
  backend: sqlite
`), 0o644))

	t.Setenv("FUTURES_LEVERAGE", "10")
	t.Setenv("FUTURES_MAX_DAILY_LOSS", "50")
	t.Setenv("PAPER_TRADING", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-key", cfg.Binance.APIKey)
	assert.Equal(t, 10, cfg.Futures.Leverage)
	assert.Equal(t, 4, cfg.Futures.MaxTradesPerDay)
	assert.Equal(t, 2.5, cfg.Futures.StopLossPercent)
	assert.Equal(t, 50.0, cfg.Futures.MaxDailyLoss)
	assert.True(t, cfg.Trading.PaperTrading)
	assert.Equal(t, "data/coin_sentinel.db", cfg.Database.SQLitePath)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADE_QUANTITY=0.05\nTELEGRAM_CHAT_ID=12345\n"), 0o644))

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Trading.Quantity)
	assert.Equal(t, "12345", cfg.Telegram.ChatID)
}

func TestLoad_BadNumber(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("FUTURES_MAX_TRADES_PER_DAY", "three")

	_, err := Load(filepath.Join(dir, "none.yaml"))
	assert.ErrorContains(t, err, "FUTURES_MAX_TRADES_PER_DAY")
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.ErrorContains(t, cfg.Validate(), "gemini.api_key")

	cfg.Gemini.APIKey = "g"
	cfg.Binance.APIKey = "k"
	assert.ErrorContains(t, cfg.Validate(), "binance")

	cfg.Binance.APISecret = "s"
	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChatID = "c"
	assert.NoError(t, cfg.Validate())

	cfg.Ledger.Backend = "redis"
	assert.ErrorContains(t, cfg.Validate(), "ledger.backend")
}
