package repository

import (
	"context"
)

// StateStore holds the last observed value per source key.
// Implementations: in-memory (default), Redis, or Postgres.
// Get reports ok=false when the key has never been set.
type StateStore interface {
	Get(ctx context.Context, key string) (value float64, ok bool, err error)
	Set(ctx context.Context, key string, value float64) error
}

// WithPrefix namespaces every key of store with prefix. It returns store
// unchanged when prefix is empty.
func WithPrefix(store StateStore, prefix string) StateStore {
	if prefix == "" {
		return store
	}
	return &prefixedStateStore{next: store, prefix: prefix}
}

type prefixedStateStore struct {
	next   StateStore
	prefix string
}

func (s *prefixedStateStore) Get(ctx context.Context, key string) (float64, bool, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *prefixedStateStore) Set(ctx context.Context, key string, value float64) error {
	return s.next.Set(ctx, s.prefix+key, value)
}
