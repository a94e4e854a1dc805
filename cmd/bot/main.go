package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "bot",
		Short: "CoinSentinel crypto trading bot",
		Long: `CoinSentinel asks an AI oracle for a trading signal on a schedule and
executes it on Binance spot or futures under daily risk limits.`,
		SilenceUsage: true,
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultCfg, "path to the YAML config file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(balanceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, Telegram polling and the metrics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Context for graceful shutdown
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sched.Register(a.cfg.Schedule.CycleCron); err != nil {
				return err
			}
			a.sched.Start()
			defer a.sched.Stop()

			if a.telegram.Enabled() {
				go a.telegram.StartPolling(ctx, a.sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			if addr := a.cfg.Metrics.Addr; addr != "" {
				srv := serveMetrics(addr, a.registry)
				defer func() {
					shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
					defer done()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			if os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("RUN_ON_START enabled, running a cycle now")
				go a.sched.RunCycle(ctx)
			}

			log.Info().Str("cycle", a.cfg.Schedule.CycleCron).Bool("paper", a.cfg.Trading.PaperTrading).
				Msg("CoinSentinel is running, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single trading cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.sched.RunCycle(cmd.Context())
			if res == nil {
				return errors.New("cycle skipped: no market data")
			}
			fmt.Printf("%s %s %s %s: %s\n", res.Status, res.Market, res.Side, res.Symbol, res.Reason)
			for _, w := range res.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print today's futures risk ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := a.ledger.Load()
			fmt.Printf("date:          %s (UTC)\n", stats.Date)
			fmt.Printf("trades:        %d / %d\n", stats.Trades, a.cfg.Futures.MaxTradesPerDay)
			fmt.Printf("realized pnl:  %.4f USDT\n", stats.RealizedPnL)
			fmt.Printf("loss limit:    %.2f USDT\n", a.cfg.Futures.MaxDailyLoss)
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print spot and futures balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Binance.APIKey == "" || a.cfg.Binance.APISecret == "" {
				return errors.New("binance.api_key and binance.api_secret are required")
			}
			futures, err := a.client.FuturesBalance(cmd.Context())
			if err != nil {
				return fmt.Errorf("futures balance: %w", err)
			}
			spot, err := a.client.SpotBalances(cmd.Context())
			if err != nil {
				return fmt.Errorf("spot balances: %w", err)
			}
			fmt.Printf("futures USDT available: %.2f\n", futures)
			for _, b := range spot {
				fmt.Printf("%-8s total %-16.8f free %-16.8f locked %.8f\n", b.Asset, b.Total(), b.Free, b.Locked)
			}
			return nil
		},
	}
}

func serveMetrics(addr string, reg prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics server started")
	return srv
}
