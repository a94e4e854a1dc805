package execution

import (
	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// ProtectiveOrder is a position-closing conditional order derived from an entry.
type ProtectiveOrder struct {
	Label   string
	Request model.OrderRequest
}

// TriggerPrices returns the stop-loss and take-profit trigger prices for a
// position opened on side at entry, rounded to 2 decimals.
func TriggerPrices(entry float64, side model.Action, stopLossPercent, takeProfitPercent float64) (stop, takeProfit float64) {
	e := decimal.NewFromFloat(entry)
	sl := decimal.NewFromFloat(stopLossPercent).Div(hundred)
	tp := decimal.NewFromFloat(takeProfitPercent).Div(hundred)
	one := decimal.NewFromInt(1)

	var s, t decimal.Decimal
	if side == model.ActionBuy {
		s = e.Mul(one.Sub(sl))
		t = e.Mul(one.Add(tp))
	} else {
		s = e.Mul(one.Add(sl))
		t = e.Mul(one.Sub(tp))
	}
	stop, _ = s.Round(2).Float64()
	takeProfit, _ = t.Round(2).Float64()
	return stop, takeProfit
}

// PlanProtection builds the stop-loss and take-profit orders for a filled
// position. A zero percentage disables the corresponding order.
func PlanProtection(symbol string, side model.Action, entry, stopLossPercent, takeProfitPercent float64) []ProtectiveOrder {
	if entry <= 0 {
		return nil
	}
	stop, takeProfit := TriggerPrices(entry, side, stopLossPercent, takeProfitPercent)
	closing := side.Opposite()

	var orders []ProtectiveOrder
	if stopLossPercent > 0 {
		orders = append(orders, ProtectiveOrder{
			Label: "stop-loss",
			Request: model.OrderRequest{
				Symbol:        symbol,
				Side:          closing,
				Type:          model.OrderTypeStopMarket,
				StopPrice:     stop,
				ClosePosition: true,
			},
		})
	}
	if takeProfitPercent > 0 {
		orders = append(orders, ProtectiveOrder{
			Label: "take-profit",
			Request: model.OrderRequest{
				Symbol:        symbol,
				Side:          closing,
				Type:          model.OrderTypeTakeProfitMarket,
				StopPrice:     takeProfit,
				ClosePosition: true,
			},
		})
	}
	return orders
}
