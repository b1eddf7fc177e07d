package repository

import (
	"context"
	"sync"
)

type memoryStateStore struct {
	mu      sync.RWMutex
	entries map[string]float64
}

func NewMemoryStateStore() StateStore {
	return &memoryStateStore{
		entries: make(map[string]float64),
	}
}

func (s *memoryStateStore) Get(_ context.Context, key string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *memoryStateStore) Set(_ context.Context, key string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}
