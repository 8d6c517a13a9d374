package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kontorlabs/kontor/auth"
)

// FileStore persists the credential pair as a JSON file. Writes go through
// a temporary file and a rename, so a crash mid-write leaves either the
// previous pair or the new one on disk, never a torn mix.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore is the constructor for the file-backed credential store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Credentials reads the stored pair from disk, or returns nil when the
// file does not exist.
func (s *FileStore) Credentials(ctx context.Context) (*auth.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds auth.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credential file %s: %w", s.path, err)
	}
	if creds.IsZero() {
		// An empty document on disk means no session.
		return nil, nil
	}
	return &creds, nil
}

// Save replaces the stored pair atomically via a temporary file and rename.
// The file is written with mode 0600; the containing directory is created
// with mode 0700 when missing.
func (s *FileStore) Save(ctx context.Context, creds auth.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

// Clear removes the credential file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}
