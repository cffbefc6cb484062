package repository

import (
	"context"
	"encoding/json"
	"errors"

	"chunkslate/internal/pkg/cache"
)

// RedisStore 基于 Redis 的键值存储，不设置过期时间
type RedisStore struct {
	cache *cache.RedisCache
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(c *cache.RedisCache) *RedisStore {
	return &RedisStore{cache: c}
}

// Get 读取
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	var raw json.RawMessage
	if err := s.cache.Get(ctx, key, &raw); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

// Set 写入
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.cache.Set(ctx, key, json.RawMessage(value), 0)
}

// Delete 删除
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
