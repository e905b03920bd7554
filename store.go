package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
)

// KVStore is the key-value store the tracker document is persisted in.
// Set replaces the whole value stored under key.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// OpenStore opens the backend selected in cfg
func OpenStore(cfg *Config, clock clockwork.Clock) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case backendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("error creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "medtrack.db"), clock)
	default:
		return NewFileStore(cfg.DataDir), nil
	}
}

// FileStore keeps each key in its own JSON file under dir
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get reads the value stored under key
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error reading %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes value under key through a temporary file and a rename
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("error writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}

// Close is a no-op for files
func (s *FileStore) Close() error {
	return nil
}
