package metrics

import (
	"testing"
	"time"

	"CoinSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveResult(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveResult(&model.TradeResult{Market: "FUTURES", Status: model.StatusFilled, Warnings: []string{"a", "b"}})
	c.ObserveResult(&model.TradeResult{Market: "FUTURES", Status: model.StatusFilled})
	c.ObserveResult(&model.TradeResult{Market: "SPOT", Status: model.StatusSkipped})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Trades.WithLabelValues("FUTURES", "FILLED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Trades.WithLabelValues("SPOT", "SKIPPED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ResultWarnings))
}

func TestSetLedgerAndCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetLedger(model.DailyStats{Date: "2024-05-10", Trades: 3, RealizedPnL: -12.5})
	c.ObserveCycle(1500 * time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.LedgerTrades))
	assert.Equal(t, -12.5, testutil.ToFloat64(c.LedgerRealizedPnL))

	n, err := testutil.GatherAndCount(reg, "coinsentinel_cycle_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
