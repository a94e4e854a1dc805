package recorder

import "CoinSentinel/internal/model"

// NoopRecorder is a no-op implementation used when journaling is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *model.TradeResult) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
