// Package metrics exposes Prometheus instruments for trading cycles,
// trade results and the daily risk ledger.
package metrics

import (
	"time"

	"CoinSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the instruments registered for one bot process.
type Collector struct {
	Trades             *prometheus.CounterVec
	ResultWarnings     prometheus.Counter
	LedgerTrades       prometheus.Gauge
	LedgerRealizedPnL  prometheus.Gauge
	CycleDuration      prometheus.Histogram
}

// NewCollector creates the instruments and registers them with reg.
// A nil reg leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_trades_total",
			Help: "Trade results by market and status.",
		}, []string{"market", "status"}),
		ResultWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_result_warnings_total",
			Help: "Warnings attached to trade results, protective order failures included.",
		}),
		LedgerTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_ledger_trades",
			Help: "Futures trades counted in today's ledger.",
		}),
		LedgerRealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_ledger_realized_pnl",
			Help: "Realized futures PnL for today in USDT.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coinsentinel_cycle_duration_seconds",
			Help:    "Duration of a full trading cycle.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	if reg != nil {
		reg.MustRegister(c.Trades, c.ResultWarnings, c.LedgerTrades, c.LedgerRealizedPnL, c.CycleDuration)
	}
	return c
}

// ObserveResult counts a trade result and its warnings.
func (c *Collector) ObserveResult(r *model.TradeResult) {
	c.Trades.WithLabelValues(r.Market, string(r.Status)).Inc()
	if n := len(r.Warnings); n > 0 {
		c.ResultWarnings.Add(float64(n))
	}
}

// SetLedger mirrors the ledger's current figures.
func (c *Collector) SetLedger(stats model.DailyStats) {
	c.LedgerTrades.Set(float64(stats.Trades))
	c.LedgerRealizedPnL.Set(stats.RealizedPnL)
}

func (c *Collector) ObserveCycle(d time.Duration) {
	c.CycleDuration.Observe(d.Seconds())
}
