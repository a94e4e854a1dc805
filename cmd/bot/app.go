package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/config"
	"CoinSentinel/internal/exchange"
	"CoinSentinel/internal/execution"
	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/oracle"
	"CoinSentinel/internal/recorder"
	"CoinSentinel/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	client   *exchange.Client
	ledger   *ledger.Ledger
	telegram *notifier.TelegramNotifier
	sched    *scheduler.Scheduler
	registry *prometheus.Registry

	closers []func() error
}

// newApp loads config and wires every component. validate makes missing
// credentials fatal, which only the trading subcommands need.
func newApp(ctx context.Context, validate bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log.Level)
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}

	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := a.openLedgerStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ledger = ledger.New(store, time.Now)

	a.client = exchange.NewClient(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Proxy)
	engine := execution.NewEngine(a.client, a.ledger, execution.Settings{
		APIKey:            cfg.Binance.APIKey,
		APISecret:         cfg.Binance.APISecret,
		TradeQuantity:     cfg.Trading.Quantity,
		Leverage:          cfg.Futures.Leverage,
		MaxTradesPerDay:   cfg.Futures.MaxTradesPerDay,
		MaxDailyLoss:      cfg.Futures.MaxDailyLoss,
		StopLossPercent:   cfg.Futures.StopLossPercent,
		TakeProfitPercent: cfg.Futures.TakeProfitPercent,
		UseBalancePercent: cfg.Futures.UseBalancePercent,
		PaperTrading:      cfg.Trading.PaperTrading,
	})

	fetcher := collector.NewCoinGeckoFetcher(cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("market data source")
	col := collector.NewCollector(fetcher, cfg.Trading.TopCoins)
	gem := oracle.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Proxy)

	a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	rec := a.openRecorder()

	a.sched = scheduler.NewScheduler(ctx, col, gem, engine, a.ledger, a.telegram, rec)
	a.sched.Balances = a.client
	a.sched.Metrics = metrics.NewCollector(a.registry)
	a.sched.Limits = scheduler.Limits{
		MaxTradesPerDay: cfg.Futures.MaxTradesPerDay,
		MaxDailyLoss:    cfg.Futures.MaxDailyLoss,
	}
	a.sched.Metrics.SetLedger(a.ledger.Load())

	if cfg.Trading.PaperTrading {
		log.Warn().Msg("paper trading enabled, no real orders will be sent")
	}
	return a, nil
}

func (a *app) openLedgerStore() (ledger.Store, error) {
	switch a.cfg.Ledger.Backend {
	case "sqlite":
		s, err := ledger.NewSQLiteStore(a.cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open ledger store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		log.Info().Str("path", a.cfg.Database.SQLitePath).Msg("ledger backend: sqlite")
		return s, nil
	default:
		s, err := ledger.NewFileStore(a.cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("open ledger store: %w", err)
		}
		log.Info().Str("path", a.cfg.Ledger.Path).Msg("ledger backend: file")
		return s, nil
	}
}

// openRecorder prefers SQLite when a database path is set and falls back to
// the JSONL journal, then to noop.
func (a *app) openRecorder() recorder.Recorder {
	if p := a.cfg.Database.SQLitePath; p != "" {
		sr, err := recorder.NewSQLiteRecorder(p)
		if err == nil {
			a.closers = append(a.closers, sr.Close)
			return sr
		}
		log.Warn().Err(err).Msg("init sqlite recorder failed, using journal file")
	}
	jr, err := recorder.NewJSONLRecorder(a.cfg.Database.JournalPath)
	if err != nil {
		log.Warn().Err(err).Msg("init journal recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	log.Info().Str("path", a.cfg.Database.JournalPath).Msg("trade journal opened")
	return jr
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
