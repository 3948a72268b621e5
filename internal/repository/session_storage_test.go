package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisSessionStorageWrapsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	storage := NewRedisSessionStorage(unreachableRedis(), time.Hour, zap.New(core))
	t.Cleanup(func() { _ = storage.Close() })
	ctx := context.Background()

	_, found, err := storage.Get(ctx, "c1:userRole")
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), "redis get c1:userRole")
	assert.Equal(t, 1, logs.FilterMessage("redis session read failed").Len())

	err = storage.Set(ctx, "c1:userRole", "teacher")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set c1:userRole")

	err = storage.Remove(ctx, "c1:userRole")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis delete c1:userRole")
}

func TestRedisSessionStorageCloseWithoutClient(t *testing.T) {
	storage := &RedisSessionStorage{}
	assert.NoError(t, storage.Close())
}
