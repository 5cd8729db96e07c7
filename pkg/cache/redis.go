package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"social-network/pkg/redis"
)

// RedisStore 基于Redis的版本令牌和结果缓存实现
type RedisStore struct {
	rdb *redis.RedisClient
}

// NewRedisStore 创建Redis缓存存储
func NewRedisStore(rdb *redis.RedisClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// versionKey 版本令牌的key格式
func versionKey(userID int64, cacheType string) string {
	return fmt.Sprintf("user_cache_version:%d:%s", userID, cacheType)
}

// newVersionToken 生成8位随机令牌
func newVersionToken() string {
	return uuid.NewString()[:8]
}

// GetOrCreateVersion 获取当前版本令牌，不存在时原子创建
func (s *RedisStore) GetOrCreateVersion(ctx context.Context, userID int64, cacheType string) (string, error) {
	key := versionKey(userID, cacheType)

	version, err := s.rdb.Get(ctx, key)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to get cache version: %w", err)
	}

	// 令牌不存在，SetNX保证并发首次访问只有一个写入者成功
	if _, err := s.rdb.SetNX(ctx, key, newVersionToken(), 0); err != nil {
		return "", fmt.Errorf("failed to create cache version: %w", err)
	}

	// 回读胜出者的令牌
	version, err = s.rdb.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read back cache version: %w", err)
	}
	return version, nil
}

// BumpVersion 无条件替换版本令牌，旧版本下的所有缓存key随即不可达
func (s *RedisStore) BumpVersion(ctx context.Context, userID int64, cacheType string) error {
	key := versionKey(userID, cacheType)
	if err := s.rdb.Set(ctx, key, newVersionToken(), 0); err != nil {
		return fmt.Errorf("failed to bump cache version: %w", err)
	}
	return nil
}

// Get 读取缓存结果
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached result: %w", err)
	}
	return value, true, nil
}

// Set 写入缓存结果
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("failed to set cached result: %w", err)
	}
	return nil
}
