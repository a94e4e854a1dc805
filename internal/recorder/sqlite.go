package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"CoinSentinel/internal/model"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists trade results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_log (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT,
			side        TEXT,
			market      TEXT,
			confidence  INTEGER,
			reason      TEXT,
			status      TEXT,
			response    TEXT,
			warnings    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_ts ON trade_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_status ON trade_log(status)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(t *model.TradeResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var response sql.NullString
	if t.Response != nil {
		b, err := json.Marshal(t.Response)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		response = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.Exec(`INSERT INTO trade_log
		(id, timestamp, symbol, side, market, confidence, reason, status, response, warnings)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Timestamp.Unix(), t.Symbol, t.Side, t.Market, t.Confidence,
		t.Reason, string(t.Status), response, strings.Join(t.Warnings, "\n"),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
