package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"CoinSentinel/internal/model"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per trading day; the newest row is the current record.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS daily_stats (
		date         TEXT PRIMARY KEY,
		trades       INTEGER NOT NULL DEFAULT 0,
		realized_pnl REAL    NOT NULL DEFAULT 0,
		updated_at   INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("sqlite ledger store opened")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() (model.DailyStats, error) {
	var stats model.DailyStats
	err := s.db.QueryRow(`SELECT date, trades, realized_pnl FROM daily_stats
		ORDER BY date DESC LIMIT 1`).Scan(&stats.Date, &stats.Trades, &stats.RealizedPnL)
	if err != nil {
		return model.DailyStats{}, err
	}
	return stats, nil
}

func (s *SQLiteStore) Save(stats model.DailyStats) error {
	_, err := s.db.Exec(`INSERT INTO daily_stats (date, trades, realized_pnl, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT(date) DO UPDATE SET
			trades = excluded.trades,
			realized_pnl = excluded.realized_pnl,
			updated_at = excluded.updated_at`,
		stats.Date, stats.Trades, stats.RealizedPnL, time.Now().Unix(),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
