package ledger

import (
	"errors"
	"sync"

	"CoinSentinel/internal/model"
)

var errEmptyStore = errors.New("ledger: no record stored")

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	stats *model.DailyStats
	saves int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (model.DailyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats == nil {
		return model.DailyStats{}, errEmptyStore
	}
	return *m.stats, nil
}

func (m *MemoryStore) Save(stats model.DailyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = &stats
	m.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
