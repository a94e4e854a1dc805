// Package exchange is a signed REST client for the Binance spot and USDⓈ-M
// futures APIs.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

const (
	DefaultSpotBaseURL    = "https://api.binance.com"
	DefaultFuturesBaseURL = "https://fapi.binance.com"

	defaultTimeout = 12 * time.Second
)

// Client talks to the exchange. Every call is bounded by the http.Client timeout.
type Client struct {
	APIKey         string
	Secret         string
	SpotBaseURL    string
	FuturesBaseURL string
	Client         *http.Client
	Now            func() time.Time
}

// NewClient creates a client with optional proxy support.
func NewClient(apiKey, secret, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		APIKey:         apiKey,
		Secret:         secret,
		SpotBaseURL:    DefaultSpotBaseURL,
		FuturesBaseURL: DefaultFuturesBaseURL,
		Client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		Now: time.Now,
	}
}

// Balance is a single spot wallet entry.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

func (b Balance) Total() float64 {
	t, _ := decimal.NewFromFloat(b.Free).Add(decimal.NewFromFloat(b.Locked)).Float64()
	return t
}

// FuturesBalance returns the available USDT balance of the futures wallet.
func (c *Client) FuturesBalance(ctx context.Context) (float64, error) {
	body, err := c.signed(ctx, http.MethodGet, c.FuturesBaseURL, "/fapi/v2/account", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("futures account: %w", err)
	}
	var account struct {
		Assets []struct {
			Asset            string `json:"asset"`
			AvailableBalance string `json:"availableBalance"`
		} `json:"assets"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return 0, fmt.Errorf("decode futures account: %w", err)
	}
	for _, a := range account.Assets {
		if a.Asset == "USDT" {
			return strconv.ParseFloat(a.AvailableBalance, 64)
		}
	}
	return 0, nil
}

// SpotBalances returns every spot asset with a non-zero total.
func (c *Client) SpotBalances(ctx context.Context) ([]Balance, error) {
	body, err := c.signed(ctx, http.MethodGet, c.SpotBaseURL, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, fmt.Errorf("spot account: %w", err)
	}
	var account struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("decode spot account: %w", err)
	}
	var out []Balance
	for _, b := range account.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if free+locked > 0 {
			out = append(out, Balance{Asset: b.Asset, Free: free, Locked: locked})
		}
	}
	return out, nil
}

// SetLeverage sets the initial leverage for symbol on the futures account.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	if _, err := c.signed(ctx, http.MethodPost, c.FuturesBaseURL, "/fapi/v1/leverage", params); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}
	return nil
}

// Price returns the latest futures price for symbol. The endpoint is public.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/ticker/price?symbol=%s", c.FuturesBaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	body, err := c.do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch price: %w", err)
	}
	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}
	return strconv.ParseFloat(ticker.Price, 64)
}

// PlaceOrder submits an order on the given market and returns the raw response.
func (c *Client) PlaceOrder(ctx context.Context, market model.Market, order model.OrderRequest) (map[string]any, error) {
	baseURL, path := c.SpotBaseURL, "/api/v3/order"
	if market == model.MarketFutures {
		baseURL, path = c.FuturesBaseURL, "/fapi/v1/order"
	}

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", order.Type)
	if order.ClosePosition {
		params.Set("closePosition", "true")
	} else {
		params.Set("quantity", FormatDecimal(order.Quantity))
	}
	if order.StopPrice > 0 {
		params.Set("stopPrice", FormatDecimal(order.StopPrice))
	}
	if order.ClientOrderID != "" {
		params.Set("newClientOrderId", order.ClientOrderID)
	}

	body, err := c.signed(ctx, http.MethodPost, baseURL, path, params)
	if err != nil {
		return nil, err
	}
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return resp, nil
}

// RealizedPnL sums the USDT realized PnL income entries since the given time.
func (c *Client) RealizedPnL(ctx context.Context, since time.Time) (float64, error) {
	params := url.Values{}
	params.Set("incomeType", "REALIZED_PNL")
	params.Set("startTime", strconv.FormatInt(since.UnixMilli(), 10))
	body, err := c.signed(ctx, http.MethodGet, c.FuturesBaseURL, "/fapi/v1/income", params)
	if err != nil {
		return 0, fmt.Errorf("income history: %w", err)
	}
	var entries []struct {
		Asset  string `json:"asset"`
		Income string `json:"income"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return 0, fmt.Errorf("decode income history: %w", err)
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.Asset != "USDT" {
			continue
		}
		v, err := decimal.NewFromString(e.Income)
		if err != nil {
			return 0, fmt.Errorf("parse income %q: %w", e.Income, err)
		}
		total = total.Add(v)
	}
	f, _ := total.Float64()
	return f, nil
}

// FormatDecimal renders v without exponent or trailing zeros.
func FormatDecimal(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// signed adds timestamp and signature to params and sends the request with the API key header.
func (c *Client) signed(ctx context.Context, method, baseURL, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(c.Now().UnixMilli(), 10))
	query := params.Encode()
	query += "&signature=" + Sign(query, c.Secret)

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.APIKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
