package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"

	"CoinSentinel/internal/model"
)

// Store persists the single current DailyStats record.
type Store interface {
	Load() (model.DailyStats, error)
	Save(stats model.DailyStats) error
}

// FileStore keeps the record as a JSON document on disk.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore, making sure the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{Path: path}, nil
}

// Load reads the stored record. A missing file is reported as an error; the
// Ledger treats any error as a fresh day.
func (f *FileStore) Load() (model.DailyStats, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return model.DailyStats{}, err
	}
	var stats model.DailyStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return model.DailyStats{}, err
	}
	return stats, nil
}

// Save replaces the stored record.
func (f *FileStore) Save(stats model.DailyStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.Path, data, 0o644)
}

// writeFileAtomic writes data to a temp file in the target directory, syncs it
// and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	// best-effort fsync of the parent dir
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
