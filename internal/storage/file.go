package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"driveauth/internal/util"
)

// FileStore keeps all items in a single JSON object on disk.
// Writes go through util.AtomicWrite.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent directories
// with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, err
	}

	return &FileStore{filePath: filePath}, nil
}

func (f *FileStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", false, err
	}

	v, ok := items[key]
	return v, ok, nil
}

func (f *FileStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value

	b, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return util.AtomicWrite(f.filePath, b, 0600)
}

func (f *FileStore) load() (map[string]string, error) {
	items := make(map[string]string)

	b, err := os.ReadFile(f.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return items, nil
	}

	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.filePath, err)
	}

	return items, nil
}
