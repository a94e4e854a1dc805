package model

// Action is the trade direction requested by a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Market selects the exchange product a signal targets.
type Market string

const (
	MarketSpot    Market = "SPOT"
	MarketFutures Market = "FUTURES"
)

// Signal is a structured trading recommendation produced by the oracle.
type Signal struct {
	Action     Action `json:"action"`
	Market     Market `json:"market"`
	Symbol     string `json:"symbol"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// MarketOrDefault returns the signal's market, SPOT when unset.
func (s *Signal) MarketOrDefault() Market {
	if s.Market == "" {
		return MarketSpot
	}
	return s.Market
}

// Opposite returns the closing side for a position opened with a.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}
