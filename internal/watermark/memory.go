package watermark

import (
	"context"
	gosync "sync"
)

// MemoryStore is an in-memory Store used by tests and as a fallback
// when no durable storage is available. Values do not survive restarts.
type MemoryStore struct {
	mu     gosync.Mutex
	values map[string]int
	flags  map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]int),
		flags:  make(map[string]bool),
	}
}

// Get returns the counter for key, or 0 if it was never set.
func (s *MemoryStore) Get(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

// Set stores the counter for key.
func (s *MemoryStore) Set(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// GetFlag returns whether the flag for key was ever set.
func (s *MemoryStore) GetFlag(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[key], nil
}

// SetFlag marks the flag for key.
func (s *MemoryStore) SetFlag(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = true
	return nil
}
