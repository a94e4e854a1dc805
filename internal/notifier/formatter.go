package notifier

import (
	"fmt"
	"html"
	"strings"

	"CoinSentinel/internal/exchange"
	"CoinSentinel/internal/model"
)

// FormatTradeAlert formats a trade result into a Telegram message.
func FormatTradeAlert(r *model.TradeResult) string {
	var b strings.Builder

	icon := "✅"
	switch r.Status {
	case model.StatusSkipped:
		icon = "⏸"
	case model.StatusFailed:
		icon = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>Trade Alert</b> | %s\n\n", icon, r.Timestamp.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Symbol: %s\n", html.EscapeString(r.Symbol)))
	b.WriteString(fmt.Sprintf("Side: %s\n", html.EscapeString(r.Side)))
	b.WriteString(fmt.Sprintf("Market: %s\n", html.EscapeString(r.Market)))
	b.WriteString(fmt.Sprintf("Confidence: %d%%\n", r.Confidence))
	b.WriteString(fmt.Sprintf("Reason: %s\n", html.EscapeString(r.Reason)))
	b.WriteString(fmt.Sprintf("Status: <b>%s</b>\n", r.Status))

	if paper, _ := r.Response["paper"].(bool); paper {
		b.WriteString("\n<i>paper trade, no order sent</i>\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n⚠️ <b>Warnings:</b>\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(w)))
		}
	}
	return b.String()
}

// FormatDailyStats formats the daily risk ledger for display.
func FormatDailyStats(stats model.DailyStats, maxTrades int, maxLoss float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📒 <b>Daily Ledger</b> | %s (UTC)\n\n", stats.Date))
	if maxTrades > 0 {
		b.WriteString(fmt.Sprintf("Futures trades: %d / %d\n", stats.Trades, maxTrades))
	} else {
		b.WriteString(fmt.Sprintf("Futures trades: %d\n", stats.Trades))
	}
	b.WriteString(fmt.Sprintf("Realized PnL: %+.2f USDT\n", stats.RealizedPnL))
	if maxLoss > 0 {
		b.WriteString(fmt.Sprintf("Loss limit: -%.2f USDT\n", maxLoss))
	}
	return b.String()
}

// FormatBalances formats spot balances and the futures USDT balance.
func FormatBalances(spot []exchange.Balance, futuresUSDT float64) string {
	var b strings.Builder
	b.WriteString("💼 <b>Balances</b>\n\n")
	b.WriteString(fmt.Sprintf("Futures USDT available: %.2f\n", futuresUSDT))
	if len(spot) == 0 {
		b.WriteString("Spot: no assets\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Spot (%d assets):\n", len(spot)))
	for _, bal := range spot {
		b.WriteString(fmt.Sprintf("  %s: %s (free %s, locked %s)\n",
			bal.Asset,
			exchange.FormatDecimal(bal.Total()),
			exchange.FormatDecimal(bal.Free),
			exchange.FormatDecimal(bal.Locked)))
	}
	return b.String()
}
