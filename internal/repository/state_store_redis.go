package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type redisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) StateStore {
	return &redisStateStore{client: client}
}

func (s *redisStateStore) Get(ctx context.Context, key string) (float64, bool, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse stored value for %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value without expiry; entries live as long as the process needs them.
func (s *redisStateStore) Set(ctx context.Context, key string, value float64) error {
	return s.client.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), 0).Err()
}
