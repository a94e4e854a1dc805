package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinSentinel/internal/model"
)

type placedOrder struct {
	Market model.Market
	Order  model.OrderRequest
}

// fakeGateway records every call and returns canned answers.
type fakeGateway struct {
	mu sync.Mutex

	balance     float64
	balanceErr  error
	price       float64
	priceErr    error
	pnl         float64
	pnlErr      error
	leverageErr error

	orderResp map[string]any
	orderErr  error
	// failTypes makes PlaceOrder fail for the given order types.
	failTypes map[string]error

	leverageCalls int
	priceCalls    int
	balanceCalls  int
	pnlSince      []time.Time
	orders        []placedOrder
}

func (f *fakeGateway) FuturesBalance(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeGateway) SetLeverage(context.Context, string, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverageCalls++
	return f.leverageErr
}

func (f *fakeGateway) Price(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	return f.price, f.priceErr
}

func (f *fakeGateway) PlaceOrder(_ context.Context, market model.Market, order model.OrderRequest) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, placedOrder{Market: market, Order: order})
	if err, ok := f.failTypes[order.Type]; ok {
		return nil, err
	}
	if order.Type != model.OrderTypeMarket {
		return map[string]any{"orderId": float64(len(f.orders))}, nil
	}
	return f.orderResp, f.orderErr
}

func (f *fakeGateway) RealizedPnL(_ context.Context, since time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pnlSince = append(f.pnlSince, since)
	return f.pnl, f.pnlErr
}

func (f *fakeGateway) ordersOfType(t string) []model.OrderRequest {
	var out []model.OrderRequest
	for _, o := range f.orders {
		if o.Order.Type == t {
			out = append(out, o.Order)
		}
	}
	return out
}

var errNetwork = errors.New("dial tcp: i/o timeout")
