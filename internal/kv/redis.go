package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots in redis, for deployments where the
// platform key-value store is a shared service rather than a local file.
type RedisStore struct {
	c      *redis.Client
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(c *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "continuum:"
	}
	return &RedisStore{c: c, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.c.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.c.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.c.Del(ctx, s.prefix+key).Err()
}
