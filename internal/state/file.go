package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/surfspot/internal/util/atomicfile"
)

// FileStore keeps one file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the state files.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Get reads key. Surrounding whitespace is trimmed so hand-edited files
// with a trailing newline compare equal.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Set writes key atomically.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := atomicfile.Write(s.Path(key), []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid state key %q", key)
	}
	return nil
}
