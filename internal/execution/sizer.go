package execution

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Sizer converts a balance percentage into an order quantity.
type Sizer struct {
	Gateway Gateway
}

// Size returns the quantity worth percent of the available USDT balance at the
// current price. Any failed or non-positive input falls back to fallback.
func (s Sizer) Size(ctx context.Context, symbol string, fallback, percent float64) float64 {
	if percent <= 0 {
		return fallback
	}
	balance, err := s.Gateway.FuturesBalance(ctx)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("balance fetch failed, using flat quantity")
		return fallback
	}
	if balance <= 0 {
		log.Warn().Str("symbol", symbol).Msg("no available balance, using flat quantity")
		return fallback
	}
	price, err := s.Gateway.Price(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price fetch failed, using flat quantity")
		return fallback
	}
	qty := PositionQuantity(balance, percent, price)
	if qty <= 0 {
		return fallback
	}
	log.Info().
		Str("symbol", symbol).
		Float64("balance", balance).
		Float64("percent", percent).
		Float64("price", price).
		Float64("quantity", qty).
		Msg("position sized from balance")
	return qty
}

// PositionQuantity is balance*percent/100/price rounded to 6 decimals.
func PositionQuantity(balance, percent, price float64) float64 {
	if price <= 0 {
		return 0
	}
	notional := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(percent)).Div(hundred)
	qty, _ := notional.Div(decimal.NewFromFloat(price)).Round(6).Float64()
	return qty
}
