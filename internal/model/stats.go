package model

// DateLayout is the calendar-day key used by the daily ledger.
const DateLayout = "2006-01-02"

// DailyStats is the persisted per-day risk record.
type DailyStats struct {
	Date        string  `json:"date"`
	Trades      int     `json:"trades"`
	RealizedPnL float64 `json:"realized_pnl"`
}
