package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CoinSentinel/internal/model"
)

// JSONLRecorder appends one JSON document per trade to a file.
type JSONLRecorder struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewJSONLRecorder creates the parent directory of path if needed.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &JSONLRecorder{path: path, now: time.Now}, nil
}

// RecordTrade appends r, stamped with the UTC write time.
func (j *JSONLRecorder) RecordTrade(r *model.TradeResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := *r
	entry.Timestamp = j.now().UTC()
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

func (j *JSONLRecorder) Close() error { return nil }
