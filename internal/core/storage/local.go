package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/insuraai/insuraai/internal/core"
)

var _ core.ObjectStorage = (*LocalStorage)(nil)

// LocalStorage keeps uploaded documents under a static-served directory.
// Policies reference them by the relative /uploads path.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Dir returns the directory backing the /uploads file server.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) SaveDocument(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	// key is generated server-side, but Base guards against traversal anyway.
	name := filepath.Base(key)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return "/uploads/" + name, nil
}

func (s *LocalStorage) DeleteDocument(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
