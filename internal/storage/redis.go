package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements BlobStore on top of plain redis string keys.
// A zero TTL keeps objects until they are overwritten.
type RedisStore struct {
	Client    *redis.Client
	Namespace string
	TTL       time.Duration
}

func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, Namespace: namespace, TTL: ttl}
}

func (s *RedisStore) key(key string) string {
	if s.Namespace == "" {
		return key
	}
	return s.Namespace + ":" + key
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.Client.Set(ctx, s.key(key), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to write to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.Client.Scan(ctx, 0, s.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if s.Namespace != "" {
			k = strings.TrimPrefix(k, s.Namespace+":")
		}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
