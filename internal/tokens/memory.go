package tokens

import (
	"context"
	"sync"
)

// NewMemoryStore returns a Store whose values live for the lifetime of the process.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[Key]string, 2)}
}

// MemoryStore implements Store with an in-memory map.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[Key]string
}

// Get returns the value stored for key.
func (s *MemoryStore) Get(_ context.Context, key Key) (string, error) {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set overwrites the value stored for key.
func (s *MemoryStore) Set(_ context.Context, key Key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Remove deletes the value stored for key.
func (s *MemoryStore) Remove(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// SavePair replaces both credentials under a single lock.
func (s *MemoryStore) SavePair(_ context.Context, pair Pair) error {
	s.mu.Lock()
	s.values[AccessToken] = pair.AccessToken
	s.values[RefreshToken] = pair.RefreshToken
	s.mu.Unlock()
	return nil
}

// Clear removes both credentials under a single lock.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	delete(s.values, AccessToken)
	delete(s.values, RefreshToken)
	s.mu.Unlock()
	return nil
}
