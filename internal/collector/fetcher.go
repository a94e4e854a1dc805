package collector

import (
	"context"

	"CoinSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchTopCoins(ctx context.Context, limit int) ([]model.CoinQuote, error)
	Name() string
}
