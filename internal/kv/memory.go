package kv

import (
	"context"
	"sync"
)

// memoryStore is the in-process Store used by tests and the default demo
// wiring. Safe for concurrent use.
type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemory returns an empty in-memory Store.
func NewMemory() Store {
	return &memoryStore{blobs: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.blobs[key]
	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = value
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}
