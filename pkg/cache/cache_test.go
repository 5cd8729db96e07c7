package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionTokenStable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	v1, err := store.GetOrCreateVersion(ctx, 1, TypeFriends)
	require.NoError(t, err)
	require.NotEmpty(t, v1)

	// 不发生变更时重复读取拿到同一个令牌
	v2, err := store.GetOrCreateVersion(ctx, 1, TypeFriends)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestVersionNamespacesIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	friends, err := store.GetOrCreateVersion(ctx, 1, TypeFriends)
	require.NoError(t, err)
	requests, err := store.GetOrCreateVersion(ctx, 1, TypeFriendRequests)
	require.NoError(t, err)
	other, err := store.GetOrCreateVersion(ctx, 2, TypeFriends)
	require.NoError(t, err)

	// 同一用户的两个缓存类型互不影响
	require.NoError(t, store.BumpVersion(ctx, 1, TypeFriends))

	bumped, err := store.GetOrCreateVersion(ctx, 1, TypeFriends)
	require.NoError(t, err)
	assert.NotEqual(t, friends, bumped)

	unchanged, err := store.GetOrCreateVersion(ctx, 1, TypeFriendRequests)
	require.NoError(t, err)
	assert.Equal(t, requests, unchanged)

	otherUnchanged, err := store.GetOrCreateVersion(ctx, 2, TypeFriends)
	require.NoError(t, err)
	assert.Equal(t, other, otherUnchanged)
}

func TestBumpReplacesToken(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	v1, err := store.GetOrCreateVersion(ctx, 7, TypeFriends)
	require.NoError(t, err)

	require.NoError(t, store.BumpVersion(ctx, 7, TypeFriends))
	v2, err := store.GetOrCreateVersion(ctx, 7, TypeFriends)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestResultRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "key", []byte("value"), time.Hour))
	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), value)
}

func TestResultExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "key", []byte("value"), DefaultTTL))

	now = now.Add(DefaultTTL - time.Minute)
	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}
