package bill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for attachment storage
type Storage interface {
	// Save stores a file and returns the path to retrieve it with
	Save(ctx context.Context, filename string, data []byte, contentType string) (string, error)

	// Get retrieves a file by path
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// resolve keeps path inside basePath
func (l *LocalStorage) resolve(path string) string {
	return filepath.Join(l.basePath, filepath.Clean("/"+path))
}

// Save writes a file to local storage
func (l *LocalStorage) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := os.WriteFile(l.resolve(filename), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get reads a file from local storage
func (l *LocalStorage) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := os.Remove(l.resolve(path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
