package recorder

import "CoinSentinel/internal/model"

// Recorder persists every trade result for later analysis.
type Recorder interface {
	RecordTrade(r *model.TradeResult) error
	Close() error
}
