package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CoinSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-key"
	testSecret = "test-secret"
)

func TestSign_KnownVector(t *testing.T) {
	secret := "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	payload := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	assert.Equal(t, "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71", Sign(payload, secret))
}

// verifySigned checks the API key header and that the signature covers the rest of the query.
func verifySigned(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, testKey, r.Header.Get("X-MBX-APIKEY"))
	raw := r.URL.RawQuery
	idx := strings.LastIndex(raw, "&signature=")
	require.NotEqual(t, -1, idx, "missing signature in %q", raw)
	assert.Equal(t, Sign(raw[:idx], testSecret), raw[idx+len("&signature="):])
	assert.Equal(t, "1700000000000", r.URL.Query().Get("timestamp"))
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(testKey, testSecret, "")
	c.SpotBaseURL = srv.URL
	c.FuturesBaseURL = srv.URL
	c.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestPlaceOrder_FuturesMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verifySigned(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "BUY", q.Get("side"))
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Equal(t, "0.0006", q.Get("quantity"))
		assert.Equal(t, "cid-1", q.Get("newClientOrderId"))
		w.Write([]byte(`{"orderId": 42, "avgPrice": "50000.0"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).PlaceOrder(context.Background(), model.MarketFutures, model.OrderRequest{
		Symbol: "BTCUSDT", Side: model.ActionBuy, Type: model.OrderTypeMarket, Quantity: 0.0006, ClientOrderID: "cid-1",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(42), resp["orderId"])
}

func TestPlaceOrder_SpotRoutingAndClosePosition(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verifySigned(t, r)
		paths = append(paths, r.URL.Path)
		q := r.URL.Query()
		if q.Get("type") == model.OrderTypeStopMarket {
			assert.Equal(t, "true", q.Get("closePosition"))
			assert.Equal(t, "95", q.Get("stopPrice"))
			assert.Empty(t, q.Get("quantity"))
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	c := newTestClient(srv)

	_, err := c.PlaceOrder(context.Background(), model.MarketSpot, model.OrderRequest{
		Symbol: "ETHUSDT", Side: model.ActionSell, Type: model.OrderTypeMarket, Quantity: 0.5,
	})
	require.NoError(t, err)
	_, err = c.PlaceOrder(context.Background(), model.MarketFutures, model.OrderRequest{
		Symbol: "ETHUSDT", Side: model.ActionSell, Type: model.OrderTypeStopMarket, StopPrice: 95, ClosePosition: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/v3/order", "/fapi/v1/order"}, paths)
}

func TestPlaceOrder_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PlaceOrder(context.Background(), model.MarketFutures, model.OrderRequest{
		Symbol: "BTCUSDT", Side: model.ActionBuy, Type: model.OrderTypeMarket, Quantity: 1,
	})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 400, httpErr.Status)
	assert.Contains(t, httpErr.Error(), "Margin is insufficient")
}

func TestFuturesBalanceAndPnL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verifySigned(t, r)
		switch r.URL.Path {
		case "/fapi/v2/account":
			w.Write([]byte(`{"assets":[{"asset":"BNB","availableBalance":"3"},{"asset":"USDT","availableBalance":"1000.50"}]}`))
		case "/fapi/v1/income":
			assert.Equal(t, "REALIZED_PNL", r.URL.Query().Get("incomeType"))
			assert.Equal(t, "1699999200000", r.URL.Query().Get("startTime"))
			w.Write([]byte(`[{"asset":"USDT","income":"-12.5"},{"asset":"BNB","income":"1"},{"asset":"USDT","income":"2.25"}]`))
		case "/fapi/v1/leverage":
			assert.Equal(t, "5", r.URL.Query().Get("leverage"))
			w.Write([]byte(`{"leverage":5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newTestClient(srv)
	ctx := context.Background()

	bal, err := c.FuturesBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.5, bal)

	pnl, err := c.RealizedPnL(ctx, time.UnixMilli(1699999200000))
	require.NoError(t, err)
	assert.Equal(t, -10.25, pnl)

	require.NoError(t, c.SetLeverage(ctx, "BTCUSDT", 5))
}

func TestPrice_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-MBX-APIKEY"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"50000.10"}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv).Price(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.10, price)
}

func TestSpotBalances_SkipsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balances":[{"asset":"BTC","free":"0.1","locked":"0.05"},{"asset":"XRP","free":"0","locked":"0"}]}`))
	}))
	defer srv.Close()

	balances, err := newTestClient(srv).SpotBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "BTC", balances[0].Asset)
	assert.InDelta(t, 0.15, balances[0].Total(), 1e-12)
}
