package collector

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
)

const defaultCoinGeckoURL = "https://api.coingecko.com"

// CoinGeckoFetcher implements Fetcher using the public CoinGecko markets API.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a new fetcher with optional proxy support.
func NewCoinGeckoFetcher(proxyURL string) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoFetcher{
		BaseURL: defaultCoinGeckoURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// geckoCoin is the subset of /coins/markets we use.
type geckoCoin struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

// FetchTopCoins returns the top coins by market cap, priced in USD.
func (f *CoinGeckoFetcher) FetchTopCoins(ctx context.Context, limit int) ([]model.CoinQuote, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	endpoint := f.BaseURL + "/api/v3/coins/markets?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch markets: status %d, body: %s", resp.StatusCode, string(body))
	}

	var coins []geckoCoin
	if err := json.NewDecoder(resp.Body).Decode(&coins); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	quotes := make([]model.CoinQuote, len(coins))
	for i, c := range coins {
		quotes[i] = model.CoinQuote{
			ID:        c.ID,
			Symbol:    strings.ToUpper(c.Symbol),
			Price:     c.CurrentPrice,
			MarketCap: c.MarketCap,
			Volume:    c.TotalVolume,
		}
	}
	return quotes, nil
}
