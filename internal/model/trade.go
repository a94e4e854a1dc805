package model

import "time"

// Status is the outcome of a single execution.
type Status string

const (
	StatusFilled  Status = "FILLED"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

// TradeResult is produced once per execution and consumed by the journal and notifier.
type TradeResult struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	Side       string         `json:"side"`
	Market     string         `json:"market"`
	Confidence int            `json:"confidence"`
	Reason     string         `json:"reason"`
	Status     Status         `json:"status"`
	Response   map[string]any `json:"response"`
	Warnings   []string       `json:"warnings,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Order types understood by the exchange gateway.
const (
	OrderTypeMarket           = "MARKET"
	OrderTypeStopMarket       = "STOP_MARKET"
	OrderTypeTakeProfitMarket = "TAKE_PROFIT_MARKET"
)

// OrderRequest describes one order to place. Quantity is ignored when ClosePosition is set.
type OrderRequest struct {
	Symbol        string
	Side          Action
	Type          string
	Quantity      float64
	StopPrice     float64
	ClosePosition bool
	ClientOrderID string
}
