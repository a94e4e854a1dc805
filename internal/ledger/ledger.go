// Package ledger tracks the number of trades and the realized PnL of the
// current UTC calendar day. Rollover is lazy: a record dated any other day is
// replaced by a zeroed one the next time it is read.
package ledger

import (
	"time"

	"CoinSentinel/internal/model"

	"github.com/rs/zerolog/log"
)

// Ledger is the daily risk ledger. It has a single writer and no locking.
type Ledger struct {
	store Store
	now   func() time.Time
}

// New creates a Ledger over store. A nil clock defaults to time.Now.
func New(store Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now}
}

// Today returns the ledger's current UTC date key.
func (l *Ledger) Today() string {
	return l.now().UTC().Format(model.DateLayout)
}

// DayStart returns midnight UTC of the ledger's current day.
func (l *Ledger) DayStart() time.Time {
	y, m, d := l.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Load returns today's record. A missing, unreadable or stale record yields a
// fresh zeroed one; storage is not touched.
func (l *Ledger) Load() model.DailyStats {
	today := l.Today()
	stats, err := l.store.Load()
	if err != nil {
		log.Debug().Err(err).Msg("ledger load failed, starting fresh day")
		return model.DailyStats{Date: today}
	}
	if stats.Date != today {
		return model.DailyStats{Date: today}
	}
	return stats
}

// Save overwrites the stored record with stats.
func (l *Ledger) Save(stats model.DailyStats) error {
	return l.store.Save(stats)
}

// RecordTrade counts one trade and adds pnlDelta to the realized PnL.
func (l *Ledger) RecordTrade(pnlDelta float64) (model.DailyStats, error) {
	stats := l.Load()
	stats.Trades++
	stats.RealizedPnL += pnlDelta
	return stats, l.Save(stats)
}

// SetRealizedPnL counts one trade and replaces the realized PnL with the
// exchange-reported total for the day.
func (l *Ledger) SetRealizedPnL(value float64) (model.DailyStats, error) {
	stats := l.Load()
	stats.Trades++
	stats.RealizedPnL = value
	return stats, l.Save(stats)
}
