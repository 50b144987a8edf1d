// Package localfs stages submitted documents on a filesystem shared
// between the submitting process and the workers. Extraction libraries
// read from paths, so the store exposes the staged location instead of a
// reader.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("storage key %q must not contain path separators", key)
	}

	f, err := os.Create(filepath.Join(s.basePath, key))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Path returns the staged location for a key. The file may not exist yet;
// callers that need the bytes go through the extraction path anyway.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}
