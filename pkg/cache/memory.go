package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore 进程内缓存实现
//
// 与RedisStore语义一致，用于测试和无Redis的本地运行。
type MemoryStore struct {
	mu       sync.Mutex
	versions map[string]string
	entries  map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore 创建进程内缓存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string]string),
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// SetClock 替换时钟，仅测试使用
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetOrCreateVersion 获取当前版本令牌，不存在时创建
func (s *MemoryStore) GetOrCreateVersion(ctx context.Context, userID int64, cacheType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := versionKey(userID, cacheType)
	if version, ok := s.versions[key]; ok {
		return version, nil
	}
	version := uuid.NewString()[:8]
	s.versions[key] = version
	return version, nil
}

// BumpVersion 无条件替换版本令牌
func (s *MemoryStore) BumpVersion(ctx context.Context, userID int64, cacheType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions[versionKey(userID, cacheType)] = uuid.NewString()[:8]
	return nil
}

// Get 读取缓存结果
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set 写入缓存结果
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}
