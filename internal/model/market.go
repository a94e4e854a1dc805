package model

// CoinQuote is a single market-data record.
type CoinQuote struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Volume    float64 `json:"volume"`
}
