package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSessionStorage keeps durable client keys in Redis. Keys expire after
// ttl so abandoned clients do not accumulate.
type RedisSessionStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionStorage constructs the Redis backed storage.
func NewRedisSessionStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionStorage{client: client, prefix: "classconnect:session:", ttl: ttl, logger: logger}
}

// Get returns the stored value and whether it was present.
func (s *RedisSessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		s.logger.Warn("redis session read failed", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, refreshing its expiry.
func (s *RedisSessionStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *RedisSessionStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisSessionStorage) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
