package execution

import (
	"context"
	"time"

	"CoinSentinel/internal/model"
)

// Gateway is the subset of the exchange client the engine needs.
type Gateway interface {
	FuturesBalance(ctx context.Context) (float64, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	Price(ctx context.Context, symbol string) (float64, error)
	PlaceOrder(ctx context.Context, market model.Market, order model.OrderRequest) (map[string]any, error)
	RealizedPnL(ctx context.Context, since time.Time) (float64, error)
}

// Settings is the read-only account and risk configuration of the engine.
type Settings struct {
	APIKey            string
	APISecret         string
	TradeQuantity     float64
	Leverage          int
	MaxTradesPerDay   int
	MaxDailyLoss      float64
	StopLossPercent   float64
	TakeProfitPercent float64
	UseBalancePercent float64
	PaperTrading      bool
}

func (s Settings) hasCredentials() bool {
	return s.APIKey != "" && s.APISecret != ""
}
