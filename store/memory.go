// Package store provides the credential store backends: an in-memory store
// for tests and ephemeral sessions, a JSON file store for single-user
// installs, and a Redis store for shared environments. All backends replace
// the stored pair as a whole, so readers never observe a half-updated pair.
package store

import (
	"context"
	"sync"

	"github.com/kontorlabs/kontor/auth"
)

// MemoryStore holds the credential pair in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds *auth.Credentials
}

// NewMemoryStore is the constructor for the in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Credentials returns a copy of the stored pair, or nil when none is stored.
func (s *MemoryStore) Credentials(ctx context.Context) (*auth.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}

// Save replaces the stored pair as a whole.
func (s *MemoryStore) Save(ctx context.Context, creds auth.Credentials) error {
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	return nil
}

// Clear removes the stored pair.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	return nil
}
