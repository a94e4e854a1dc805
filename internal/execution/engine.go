// Package execution turns trading signals into exchange orders under the
// daily risk limits of the ledger.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"CoinSentinel/internal/exchange"
	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultSymbol = "BTCUSDT"

// Engine is the execution state machine. Execute calls must not overlap.
type Engine struct {
	Gateway  Gateway
	Ledger   *ledger.Ledger
	Settings Settings
	Sizer    Sizer

	now   func() time.Time
	newID func() string
}

// NewEngine wires an engine over the gateway and ledger.
func NewEngine(gw Gateway, l *ledger.Ledger, settings Settings) *Engine {
	return &Engine{
		Gateway:  gw,
		Ledger:   l,
		Settings: settings,
		Sizer:    Sizer{Gateway: gw},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Execute validates the signal, applies the risk gate, places the order (or
// simulates it in paper mode), places protective orders and updates the
// ledger. It never returns an error: every failure ends up in the result.
func (e *Engine) Execute(ctx context.Context, sig *model.Signal) model.TradeResult {
	// Validation: terminal, no side effects.
	if sig == nil || sig.Action == "" {
		return model.TradeResult{
			ID:        e.newID(),
			Symbol:    "UNKNOWN",
			Side:      "ERROR",
			Market:    "UNKNOWN",
			Reason:    "invalid signal received",
			Status:    model.StatusFailed,
			Timestamp: e.now(),
		}
	}
	market := model.MarketSpot
	if sig.MarketOrDefault() == model.MarketFutures {
		market = model.MarketFutures
	}
	symbol := sig.Symbol
	if symbol == "" {
		symbol = defaultSymbol
	}

	switch sig.Action {
	case model.ActionHold:
		reason := sig.Reason
		if reason == "" {
			reason = "no trade executed (action was HOLD)"
		}
		return e.result(sig, symbol, market, model.StatusSkipped, reason)
	case model.ActionBuy, model.ActionSell:
	default:
		return e.result(sig, symbol, market, model.StatusFailed, fmt.Sprintf("invalid action: %s", sig.Action))
	}

	if !e.Settings.hasCredentials() {
		return e.result(sig, symbol, market, model.StatusFailed, "exchange API keys not configured")
	}

	side := sig.Action
	quantity := e.Settings.TradeQuantity
	futures := market == model.MarketFutures

	// Risk gate, then leverage and sizing. Leverage is best effort; sizing
	// falls back to the flat quantity on its own.
	if futures {
		if reason, blocked := e.riskGate(e.Ledger.Load()); blocked {
			log.Info().Str("symbol", symbol).Str("reason", reason).Msg("trade skipped by risk gate")
			return e.result(sig, symbol, market, model.StatusSkipped, reason)
		}
		if err := e.Gateway.SetLeverage(ctx, symbol, e.leverage()); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Int("leverage", e.leverage()).Msg("set leverage failed, continuing")
		}
		quantity = e.Sizer.Size(ctx, symbol, quantity, e.Settings.UseBalancePercent)
	}

	if e.Settings.PaperTrading {
		return e.simulate(ctx, sig, symbol, market, quantity)
	}

	order := model.OrderRequest{
		Symbol:        symbol,
		Side:          side,
		Type:          model.OrderTypeMarket,
		Quantity:      quantity,
		ClientOrderID: e.newID(),
	}
	resp, err := e.Gateway.PlaceOrder(ctx, market, order)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("market", string(market)).Msg("order placement failed")
		return e.result(sig, symbol, market, model.StatusFailed, orderFailureReason(err))
	}

	reason := sig.Reason
	if reason == "" {
		reason = "trade executed successfully"
	}
	res := e.result(sig, symbol, market, model.StatusFilled, reason)
	res.Response = resp
	log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Str("market", string(market)).
		Float64("quantity", quantity).
		Msg("order filled")

	if futures {
		if _, ok := resp["orderId"]; ok {
			e.protect(ctx, &res, symbol, side, resp)
		}
		e.recordFuturesTrade(ctx, &res)
	}
	return res
}

func (e *Engine) simulate(ctx context.Context, sig *model.Signal, symbol string, market model.Market, quantity float64) model.TradeResult {
	log.Info().
		Str("symbol", symbol).
		Str("side", string(sig.Action)).
		Str("market", string(market)).
		Float64("quantity", quantity).
		Msg("[PAPER] simulating trade")

	res := e.result(sig, symbol, market, model.StatusFilled, "[PAPER] trade executed (simulated)")
	res.Response = map[string]any{
		"paper":    true,
		"action":   string(sig.Action),
		"quantity": quantity,
	}
	if market == model.MarketFutures {
		if e.Settings.StopLossPercent > 0 || e.Settings.TakeProfitPercent > 0 {
			log.Info().
				Float64("stop_loss_percent", e.Settings.StopLossPercent).
				Float64("take_profit_percent", e.Settings.TakeProfitPercent).
				Msg("[PAPER] protective orders not placed")
		}
		e.recordFuturesTrade(ctx, &res)
	}
	return res
}

// riskGate reports whether today's ledger blocks another futures trade.
func (e *Engine) riskGate(stats model.DailyStats) (string, bool) {
	if limit := e.Settings.MaxTradesPerDay; limit > 0 && stats.Trades >= limit {
		return fmt.Sprintf("max trades per day (%d) reached", limit), true
	}
	if limit := e.Settings.MaxDailyLoss; limit > 0 {
		if stats.RealizedPnL <= -limit {
			return fmt.Sprintf("max daily loss (%s) reached", strconv.FormatFloat(limit, 'f', -1, 64)), true
		}
	}
	return "", false
}

// protect places the stop-loss and take-profit orders for a filled futures
// order. Failures become warnings on the result; the fill stands.
func (e *Engine) protect(ctx context.Context, res *model.TradeResult, symbol string, side model.Action, resp map[string]any) {
	slPct, tpPct := e.Settings.StopLossPercent, e.Settings.TakeProfitPercent
	if slPct <= 0 && tpPct <= 0 {
		return
	}

	entry := EntryPrice(resp)
	if entry <= 0 {
		price, err := e.Gateway.Price(ctx, symbol)
		if err != nil {
			e.warn(res, fmt.Sprintf("entry price unavailable, position left without protective orders: %v", err))
			return
		}
		entry = price
	}
	if entry <= 0 {
		e.warn(res, "entry price unavailable, position left without protective orders")
		return
	}

	for _, po := range PlanProtection(symbol, side, entry, slPct, tpPct) {
		po.Request.ClientOrderID = e.newID()
		if _, err := e.Gateway.PlaceOrder(ctx, model.MarketFutures, po.Request); err != nil {
			e.warn(res, fmt.Sprintf("%s order at %s failed: %v", po.Label, exchange.FormatDecimal(po.Request.StopPrice), err))
			continue
		}
		log.Info().
			Str("symbol", symbol).
			Str("order", po.Label).
			Float64("stop_price", po.Request.StopPrice).
			Msg("protective order placed")
	}
}

// recordFuturesTrade counts the trade and stores the exchange-reported
// realized PnL. When that figure cannot be fetched the previous value is kept.
func (e *Engine) recordFuturesTrade(ctx context.Context, res *model.TradeResult) {
	var (
		stats model.DailyStats
		err   error
	)
	pnl, fetchErr := e.Gateway.RealizedPnL(ctx, e.Ledger.DayStart())
	if fetchErr != nil {
		log.Warn().Err(fetchErr).Msg("realized PnL fetch failed, keeping previous value")
		stats, err = e.Ledger.RecordTrade(0)
	} else {
		stats, err = e.Ledger.SetRealizedPnL(pnl)
	}
	if err != nil {
		e.warn(res, fmt.Sprintf("daily ledger not persisted: %v", err))
		return
	}
	log.Info().
		Str("date", stats.Date).
		Int("trades", stats.Trades).
		Float64("realized_pnl", stats.RealizedPnL).
		Msg("daily ledger updated")
}

func (e *Engine) warn(res *model.TradeResult, msg string) {
	log.Warn().Str("symbol", res.Symbol).Str("market", res.Market).Msg(msg)
	res.Warnings = append(res.Warnings, msg)
}

func (e *Engine) leverage() int {
	if e.Settings.Leverage <= 0 {
		return 1
	}
	return e.Settings.Leverage
}

func (e *Engine) result(sig *model.Signal, symbol string, market model.Market, status model.Status, reason string) model.TradeResult {
	return model.TradeResult{
		ID:         e.newID(),
		Symbol:     symbol,
		Side:       string(sig.Action),
		Market:     string(market),
		Confidence: sig.Confidence,
		Reason:     reason,
		Status:     status,
		Timestamp:  e.now(),
	}
}

func orderFailureReason(err error) string {
	var httpErr *exchange.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("trade failed: HTTP error: %d - %s", httpErr.Status, httpErr.Body)
	}
	return fmt.Sprintf("trade failed: %v", err)
}

// EntryPrice extracts the fill price from an order response: avgFillPrice,
// then the first fill, then price. Zero when none is positive.
func EntryPrice(resp map[string]any) float64 {
	if v, ok := numberField(resp, "avgFillPrice"); ok && v > 0 {
		return v
	}
	if fills, ok := resp["fills"].([]any); ok && len(fills) > 0 {
		if fill, ok := fills[0].(map[string]any); ok {
			if v, ok := numberField(fill, "price"); ok && v > 0 {
				return v
			}
		}
	}
	if v, ok := numberField(resp, "price"); ok && v > 0 {
		return v
	}
	return 0
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
