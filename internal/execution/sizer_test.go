package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionQuantity(t *testing.T) {
	assert.Equal(t, 0.0006, PositionQuantity(1000, 3, 50000))
	assert.Equal(t, 0.333333, PositionQuantity(100, 10, 30))
	assert.Equal(t, 0.0, PositionQuantity(100, 10, 0))
}

func TestSizer_FallsBack(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		gw   *fakeGateway
		pct  float64
	}{
		{"disabled", &fakeGateway{balance: 1000, price: 50000}, 0},
		{"zero balance", &fakeGateway{balance: 0, price: 50000}, 3},
		{"balance error", &fakeGateway{balanceErr: errNetwork, price: 50000}, 3},
		{"price error", &fakeGateway{balance: 1000, priceErr: errNetwork}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.001, Sizer{Gateway: tt.gw}.Size(ctx, "BTCUSDT", 0.001, tt.pct))
		})
	}
}

func TestSizer_UsesBalance(t *testing.T) {
	gw := &fakeGateway{balance: 1000, price: 50000}
	assert.Equal(t, 0.0006, Sizer{Gateway: gw}.Size(context.Background(), "BTCUSDT", 0.001, 3))
	assert.Equal(t, 1, gw.priceCalls)
}

func TestSizer_ZeroBalanceSkipsPriceFetch(t *testing.T) {
	gw := &fakeGateway{balance: 0, price: 50000}
	Sizer{Gateway: gw}.Size(context.Background(), "BTCUSDT", 0.001, 3)
	assert.Zero(t, gw.priceCalls)
}
