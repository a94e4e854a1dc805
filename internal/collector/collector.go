package collector

import (
	"context"
	"fmt"

	"CoinSentinel/internal/model"

	"github.com/rs/zerolog/log"
)

// Collector fetches the market snapshot handed to the signal oracle.
type Collector struct {
	Fetcher Fetcher
	Limit   int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, limit int) *Collector {
	if limit <= 0 {
		limit = 5
	}
	return &Collector{Fetcher: fetcher, Limit: limit}
}

// Collect fetches the top coins. Quotes without a positive price are dropped.
func (c *Collector) Collect(ctx context.Context) ([]model.CoinQuote, error) {
	quotes, err := c.Fetcher.FetchTopCoins(ctx, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top coins from %s: %w", c.Fetcher.Name(), err)
	}
	out := quotes[:0:0]
	for _, q := range quotes {
		if q.Price <= 0 {
			log.Warn().Str("symbol", q.Symbol).Msg("dropping quote without price")
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
