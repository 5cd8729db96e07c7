package cache

import (
	"context"
	"time"
)

// 缓存类型，作为同一用户下相互独立的版本命名空间
const (
	TypeFriends        = "friends"
	TypeFriendRequests = "friend_requests"
)

// DefaultTTL 缓存结果的默认过期时间
const DefaultTTL = 24 * time.Hour

// VersionStore 版本令牌存储
//
// 每个 (用户, 缓存类型) 对应一个不过期的随机令牌。读取路径把当前令牌
// 嵌入缓存key，BumpVersion 换一个新令牌后，旧key再也不会被任何读者
// 构造出来，等价于一次O(1)的整组失效，不需要枚举或删除旧条目。
type VersionStore interface {
	// GetOrCreateVersion 返回当前令牌，不存在时原子创建。
	// 并发首次访问允许竞争创建，以先写入者为准，本次调用返回的
	// 一定是所有后续读者都能观察到的那个令牌。
	GetOrCreateVersion(ctx context.Context, userID int64, cacheType string) (string, error)
	// BumpVersion 无条件替换为新的随机令牌，令牌本身不过期
	BumpVersion(ctx context.Context, userID int64, cacheType string) error
}

// ResultCache 序列化结果缓存
type ResultCache interface {
	// Get 返回缓存值，未命中时 ok 为 false 且 err 为 nil
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set 写入缓存值并设置过期时间
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store 同时提供版本令牌和结果缓存
type Store interface {
	VersionStore
	ResultCache
}
