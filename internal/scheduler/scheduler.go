package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinSentinel/internal/exchange"
	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// MarketSource returns the market snapshot for one cycle.
type MarketSource interface {
	Collect(ctx context.Context) ([]model.CoinQuote, error)
}

// SignalSource turns a market snapshot into a trading signal.
type SignalSource interface {
	Signal(ctx context.Context, quotes []model.CoinQuote) *model.Signal
}

// Executor executes a signal against the exchange.
type Executor interface {
	Execute(ctx context.Context, sig *model.Signal) model.TradeResult
}

// Notifier delivers chat messages.
type Notifier interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// BalanceSource reports account balances for the /balance command.
type BalanceSource interface {
	FuturesBalance(ctx context.Context) (float64, error)
	SpotBalances(ctx context.Context) ([]exchange.Balance, error)
}

// Limits are the ledger limits shown by /stats.
type Limits struct {
	MaxTradesPerDay int
	MaxDailyLoss    float64
}

// Scheduler runs the trading cycle on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Market   MarketSource
	Oracle   SignalSource
	Engine   Executor
	Ledger   *ledger.Ledger
	Notifier Notifier
	Recorder recorder.Recorder
	Balances BalanceSource
	Metrics  *metrics.Collector
	Limits   Limits
	Ctx      context.Context

	// cycle serialises scheduled and manual runs so Execute never overlaps.
	cycle sync.Mutex
}

// NewScheduler creates a new Scheduler. Metrics and Balances may be nil.
func NewScheduler(ctx context.Context, market MarketSource, oracle SignalSource, engine Executor,
	l *ledger.Ledger, n Notifier, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(
				cron.Recover(cron.PrintfLogger(&log.Logger)),
				cron.SkipIfStillRunning(cron.PrintfLogger(&log.Logger)),
			),
		),
		Market:   market,
		Oracle:   oracle,
		Engine:   engine,
		Ledger:   l,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register schedules the trading cycle.
func (s *Scheduler) Register(cycleCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, func() { s.RunCycle(s.Ctx) }); err != nil {
		return fmt.Errorf("register trading cycle: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunCycle runs one trading cycle and returns its result. It returns nil
// when the cycle was skipped, either because another cycle is running or
// because no market data was available.
func (s *Scheduler) RunCycle(ctx context.Context) *model.TradeResult {
	if !s.cycle.TryLock() {
		log.Warn().Msg("trading cycle already running, skipping")
		return nil
	}
	defer s.cycle.Unlock()

	start := time.Now()
	defer func() {
		if s.Metrics != nil {
			s.Metrics.ObserveCycle(time.Since(start))
		}
	}()

	log.Info().Msg("running trading cycle")
	quotes, err := s.Market.Collect(ctx)
	if err != nil {
		log.Error().Err(err).Msg("collect market data")
		return nil
	}
	if len(quotes) == 0 {
		log.Warn().Msg("no market data, skipping cycle")
		return nil
	}

	// A nil signal is handed to Execute, which reports it as invalid.
	sig := s.Oracle.Signal(ctx, quotes)
	if sig != nil {
		log.Info().
			Str("action", string(sig.Action)).
			Str("symbol", sig.Symbol).
			Str("market", string(sig.Market)).
			Int("confidence", sig.Confidence).
			Msg("signal received")
	}

	result := s.Engine.Execute(ctx, sig)

	if err := s.Recorder.RecordTrade(&result); err != nil {
		log.Error().Err(err).Str("id", result.ID).Msg("record trade")
	}
	if s.Metrics != nil {
		s.Metrics.ObserveResult(&result)
		if s.Ledger != nil {
			s.Metrics.SetLedger(s.Ledger.Load())
		}
	}
	s.trySend(ctx, notifier.FormatTradeAlert(&result))
	return &result
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/stats":
		if s.Ledger == nil {
			return "ledger not available"
		}
		return notifier.FormatDailyStats(s.Ledger.Load(), s.Limits.MaxTradesPerDay, s.Limits.MaxDailyLoss)
	case "/run":
		// The trade alert is sent by the cycle itself.
		if s.RunCycle(s.Ctx) == nil {
			return "cycle skipped: already running or no market data"
		}
		return ""
	case "/balance":
		return s.balances(s.Ctx)
	default:
		return "Available commands:\n• /stats\n• /run\n• /balance"
	}
}

func (s *Scheduler) balances(ctx context.Context) string {
	if s.Balances == nil {
		return "balances not available"
	}
	futures, err := s.Balances.FuturesBalance(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch futures balance")
		return fmt.Sprintf("❌ futures balance failed: %v", err)
	}
	spot, err := s.Balances.SpotBalances(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch spot balances")
		return fmt.Sprintf("❌ spot balances failed: %v", err)
	}
	return notifier.FormatBalances(spot, futures)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
