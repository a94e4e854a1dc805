package recorder

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"CoinSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id string, status model.Status) *model.TradeResult {
	return &model.TradeResult{
		ID: id, Symbol: "BTCUSDT", Side: "BUY", Market: "FUTURES", Confidence: 70,
		Reason: "test", Status: status,
		Response:  map[string]any{"orderId": 1.0},
		Timestamp: time.Date(2024, 5, 10, 9, 30, 0, 0, time.FixedZone("CET", 3600)),
	}
}

func TestJSONLRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trade_log.jsonl")
	rec, err := NewJSONLRecorder(path)
	require.NoError(t, err)
	rec.now = func() time.Time { return time.Date(2024, 5, 10, 8, 31, 0, 0, time.UTC) }

	require.NoError(t, rec.RecordTrade(sample("a", model.StatusFilled)))
	require.NoError(t, rec.RecordTrade(sample("b", model.StatusSkipped)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []model.TradeResult
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r model.TradeResult
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		lines = append(lines, r)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ID)
	assert.Equal(t, model.StatusSkipped, lines[1].Status)
	assert.Equal(t, time.UTC, lines[0].Timestamp.Location())
	assert.Equal(t, 8, lines[0].Timestamp.Hour())
}

func TestSQLiteRecorder(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.RecordTrade(sample("a", model.StatusFilled)))
	failed := sample("b", model.StatusFailed)
	failed.Response = nil
	failed.Warnings = []string{"w1", "w2"}
	require.NoError(t, rec.RecordTrade(failed))
	assert.Error(t, rec.RecordTrade(sample("a", model.StatusFilled)), "duplicate id")

	assert.Equal(t, 1, countByStatus(t, rec, model.StatusFilled))
	assert.Equal(t, 1, countByStatus(t, rec, model.StatusFailed))

	var warnings string
	require.NoError(t, rec.db.QueryRow(`SELECT warnings FROM trade_log WHERE id = ?`, "b").Scan(&warnings))
	assert.Equal(t, "w1\nw2", warnings)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordTrade(sample("a", model.StatusFilled)))
	assert.NoError(t, rec.Close())
}

func countByStatus(t *testing.T, rec *SQLiteRecorder, status model.Status) int {
	t.Helper()
	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM trade_log WHERE status = ?`, string(status)).Scan(&n))
	return n
}
