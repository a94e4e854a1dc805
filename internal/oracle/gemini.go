// Package oracle asks a generative model for a trading recommendation.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CoinSentinel/internal/model"

	"github.com/rs/zerolog/log"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com"

const promptTemplate = `You are a crypto trading AI assistant. Analyze the following crypto market data and provide a trading recommendation.

Market Data:
%s

Respond with ONLY a valid JSON object containing these exact fields:
- action: "BUY", "SELL", or "HOLD"
- market: "SPOT" or "FUTURES"
- symbol: trading pair (e.g., "BTCUSDT", "ETHUSDT")
- confidence: number between 0-100
- reason: brief explanation of your decision

Example response format:
{
    "action": "BUY",
    "market": "FUTURES",
    "symbol": "BTCUSDT",
    "confidence": 75,
    "reason": "Strong upward momentum with high volume and volatility."
}

Be proactive: If you see any reasonable opportunity, recommend BUY or SELL, and prefer FUTURES for strong trends or for shorting. Only use HOLD if there is truly no opportunity.`

// Gemini calls the generateContent endpoint.
type Gemini struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewGemini creates a client with optional proxy support.
func NewGemini(apiKey, modelName, proxyURL string) *Gemini {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Gemini{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: defaultGeminiURL,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// Signal returns a recommendation for the given market data. It never fails:
// every error is turned into a HOLD signal carrying the cause as its reason.
func (g *Gemini) Signal(ctx context.Context, quotes []model.CoinQuote) *model.Signal {
	if g.APIKey == "" {
		return hold("Gemini API key not configured")
	}
	text, err := g.generate(ctx, quotes)
	if err != nil {
		log.Error().Err(err).Msg("gemini request failed")
		var se *statusError
		if errors.As(err, &se) {
			return hold(fmt.Sprintf("API HTTP error: %d", se.status))
		}
		return hold(fmt.Sprintf("AI service error: %v", err))
	}
	sig, err := ParseSignal(text)
	if err != nil {
		log.Warn().Err(err).Str("text", text).Msg("unparseable gemini response")
		return hold(fmt.Sprintf("failed to parse AI response: %v", err))
	}
	return sig
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.status, e.body)
}

func (g *Gemini) generate(ctx context.Context, quotes []model.CoinQuote) (string, error) {
	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal market data: %w", err)
	}
	payload := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]string{"text": fmt.Sprintf(promptTemplate, data)}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.4,
			"topK":            40,
			"topP":            0.95,
			"maxOutputTokens": 1024,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.Model, url.QueryEscape(g.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &statusError{status: resp.StatusCode, body: string(respBody)}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response content received")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// ParseSignal decodes a model answer, optionally wrapped in a ```json fence,
// and normalizes it: unknown actions become HOLD, unknown markets SPOT and
// confidence is clamped to 0-100.
func ParseSignal(text string) (*model.Signal, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, err
	}
	for _, field := range []string{"action", "market", "symbol", "confidence", "reason"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("missing required field: %s", field)
		}
	}

	sig := &model.Signal{
		Action: model.Action(asString(raw["action"])),
		Market: model.Market(asString(raw["market"])),
		Symbol: strings.ToUpper(asString(raw["symbol"])),
		Reason: asString(raw["reason"]),
	}
	switch sig.Action {
	case model.ActionBuy, model.ActionSell, model.ActionHold:
	default:
		sig.Reason = fmt.Sprintf("invalid action corrected to HOLD. Original: %s", sig.Reason)
		sig.Action = model.ActionHold
	}
	if sig.Market != model.MarketSpot && sig.Market != model.MarketFutures {
		sig.Market = model.MarketSpot
	}
	sig.Confidence = clampConfidence(raw["confidence"])
	return sig, nil
}

func clampConfidence(v any) int {
	var n float64
	switch c := v.(type) {
	case float64:
		n = c
	case string:
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return int(n)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func hold(reason string) *model.Signal {
	return &model.Signal{
		Action: model.ActionHold,
		Market: model.MarketSpot,
		Symbol: "BTCUSDT",
		Reason: reason,
	}
}
