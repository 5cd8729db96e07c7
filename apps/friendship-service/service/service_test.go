package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-network/apps/friendship-service/dao"
	"social-network/apps/friendship-service/model"
	"social-network/pkg/cache"
	"social-network/pkg/logger"
)

// fakeUserDAO 进程内用户数据
type fakeUserDAO struct {
	users   map[int64]*model.User
	blocked map[[2]int64]bool
}

func newFakeUserDAO(users ...*model.User) *fakeUserDAO {
	d := &fakeUserDAO{
		users:   make(map[int64]*model.User),
		blocked: make(map[[2]int64]bool),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeUserDAO) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func (d *fakeUserDAO) ListUsersByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (d *fakeUserDAO) IsBlocked(ctx context.Context, userID, blockedUserID int64) (bool, error) {
	return d.blocked[[2]int64{userID, blockedUserID}], nil
}

// fakeFriendshipDAO 进程内好友数据，复刻生产实现的约束语义
type fakeFriendshipDAO struct {
	users    *fakeUserDAO
	edges    map[[2]int64]bool
	requests map[int64]*model.FriendRequest
	nextID   int64
	now      func() time.Time
}

func newFakeFriendshipDAO(users *fakeUserDAO, now func() time.Time) *fakeFriendshipDAO {
	return &fakeFriendshipDAO{
		users:    users,
		edges:    make(map[[2]int64]bool),
		requests: make(map[int64]*model.FriendRequest),
		now:      now,
	}
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		return [2]int64{b, a}
	}
	return [2]int64{a, b}
}

func (d *fakeFriendshipDAO) FriendEdgeExists(ctx context.Context, userID, friendID int64) (bool, error) {
	return d.edges[pairKey(userID, friendID)], nil
}

func (d *fakeFriendshipDAO) CreateFriendEdge(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return model.ErrConstraintViolation
	}
	key := pairKey(userID, friendID)
	if d.edges[key] {
		return model.ErrConstraintViolation
	}
	d.edges[key] = true
	return nil
}

func (d *fakeFriendshipDAO) DeleteFriendEdge(ctx context.Context, userID, friendID int64) error {
	delete(d.edges, pairKey(userID, friendID))
	return nil
}

func (d *fakeFriendshipDAO) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for key := range d.edges {
		if key[0] == userID {
			ids = append(ids, key[1])
		} else if key[1] == userID {
			ids = append(ids, key[0])
		}
	}
	return ids, nil
}

func (d *fakeFriendshipDAO) PendingRequestExists(ctx context.Context, userID, otherID int64) (bool, error) {
	for _, r := range d.requests {
		if r.Status != model.RequestStatusPending {
			continue
		}
		if (r.FromUserID == userID && r.ToUserID == otherID) ||
			(r.FromUserID == otherID && r.ToUserID == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeFriendshipDAO) RecentlyRejectedSince(ctx context.Context, fromUserID, toUserID int64, since time.Time) (bool, error) {
	for _, r := range d.requests {
		if r.FromUserID == fromUserID && r.ToUserID == toUserID &&
			r.Status == model.RequestStatusRejected &&
			r.RejectedAt != nil && !r.RejectedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeFriendshipDAO) CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*model.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, model.ErrConstraintViolation
	}
	// pending申请的无序对唯一索引
	if exists, _ := d.PendingRequestExists(ctx, fromUserID, toUserID); exists {
		return nil, model.ErrConstraintViolation
	}

	d.nextID++
	r := &model.FriendRequest{
		ID:         d.nextID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     model.RequestStatusPending,
		CreatedAt:  d.now(),
		UpdatedAt:  d.now(),
	}
	d.requests[r.ID] = r
	return r, nil
}

func (d *fakeFriendshipDAO) GetRequest(ctx context.Context, id int64) (*model.FriendRequest, error) {
	r, ok := d.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *r
	copied.FromUser = d.users.users[r.FromUserID]
	copied.ToUser = d.users.users[r.ToUserID]
	return &copied, nil
}

func (d *fakeFriendshipDAO) ListIncomingPending(ctx context.Context, userID int64, sortField string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	for _, r := range d.requests {
		if r.ToUserID == userID && r.Status == model.RequestStatusPending {
			copied := *r
			copied.FromUser = d.users.users[r.FromUserID]
			requests = append(requests, &copied)
		}
	}

	field := strings.TrimPrefix(sortField, "-")
	desc := strings.HasPrefix(sortField, "-")
	sort.SliceStable(requests, func(i, j int) bool {
		var less bool
		if strings.HasPrefix(field, "from_user") {
			less = requests[i].FromUser.FirstName < requests[j].FromUser.FirstName
		} else {
			less = requests[i].CreatedAt.Before(requests[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
	return requests, nil
}

func (d *fakeFriendshipDAO) SetRequestStatus(ctx context.Context, id int64, status string, rejectedAt *time.Time) error {
	r, ok := d.requests[id]
	if !ok {
		return model.ErrNotFound
	}
	r.Status = status
	if rejectedAt != nil {
		r.RejectedAt = rejectedAt
	}
	return nil
}

// spyStore 包装缓存存储并统计写入次数
type spyStore struct {
	cache.Store
	setCalls int
}

func (s *spyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.setCalls++
	return s.Store.Set(ctx, key, value, ttl)
}

// failingStore 所有操作都失败的缓存存储
type failingStore struct{}

var errCacheDown = errors.New("cache down")

func (failingStore) GetOrCreateVersion(ctx context.Context, userID int64, cacheType string) (string, error) {
	return "", errCacheDown
}

func (failingStore) BumpVersion(ctx context.Context, userID int64, cacheType string) error {
	return errCacheDown
}

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errCacheDown
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errCacheDown
}

// recordedEvent 测试捕获的Kafka事件
type recordedEvent struct {
	topic string
	value []byte
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) SendMessage(topic string, key, value []byte) error {
	s.events = append(s.events, recordedEvent{topic: topic, value: value})
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, msg string, fields ...logger.Field)  {}
func (nopLogger) Error(ctx context.Context, msg string, fields ...logger.Field) {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...logger.Field)  {}
func (nopLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {}
func (nopLogger) Fatal(ctx context.Context, msg string, fields ...logger.Field) {}
func (nopLogger) WithContext(ctx context.Context) logger.Logger                 { return nopLogger{} }

// testClock 可推进的时钟
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type testEnv struct {
	svc     *Service
	friends *fakeFriendshipDAO
	users   *fakeUserDAO
	store   *spyStore
	sink    *fakeSink
	clock   *testClock
}

func newTestEnv(t *testing.T, userList ...*model.User) *testEnv {
	t.Helper()

	if len(userList) == 0 {
		userList = []*model.User{
			{ID: 1, Email: "alice@example.com", FirstName: "Alice", LastName: "A"},
			{ID: 2, Email: "bob@example.com", FirstName: "Bob", LastName: "B"},
			{ID: 3, Email: "carol@example.com", FirstName: "Carol", LastName: "C"},
		}
	}

	clock := &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	users := newFakeUserDAO(userList...)
	friends := newFakeFriendshipDAO(users, clock.Now)
	memory := cache.NewMemoryStore()
	memory.SetClock(clock.Now)
	store := &spyStore{Store: memory}
	sink := &fakeSink{}

	svc := NewService(friends, users, store, sink, Config{
		RequestCooldown: 24 * time.Hour,
		CacheTTL:        24 * time.Hour,
		EventTopic:      "friendship-events",
	}, nopLogger{})
	svc.now = clock.Now

	return &testEnv{svc: svc, friends: friends, users: users, store: store, sink: sink, clock: clock}
}

var _ dao.FriendshipDAO = (*fakeFriendshipDAO)(nil)
var _ dao.UserDAO = (*fakeUserDAO)(nil)

func TestSendFriendRequestSelf(t *testing.T) {
	env := newTestEnv(t)

	sent, err := env.svc.SendFriendRequest(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendFriendRequestAlreadyFriends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, added)

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendFriendRequestPendingEitherDirection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, sent)

	// 同方向重复
	sent, err = env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, sent)

	// 反方向也被已有的pending申请挡住
	sent, err = env.svc.SendFriendRequest(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendFriendRequestRejectionCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, sent)

	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.RejectFriendRequest(ctx, request))

	// 冷却期内同方向不能重发
	env.clock.Advance(time.Hour)
	sent, err = env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, sent)

	// 冷却只作用于被拒绝的方向，被拒绝方仍可反向申请
	sent, err = env.svc.SendFriendRequest(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestSendFriendRequestAfterCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, sent)

	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.RejectFriendRequest(ctx, request))

	env.clock.Advance(25 * time.Hour)
	sent, err = env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestAcceptFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, sent)

	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))

	// 好友关系是对称的
	isFriend, err := env.svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, isFriend)
	isFriend, err = env.svc.AreFriends(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, isFriend)

	request, err = env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, request.Status)
}

func TestAcceptFriendRequestIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))
	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))

	assert.Len(t, env.friends.edges, 1)
}

func TestAcceptBumpsFriendsVersionsWhenAlreadyFriends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)

	// 申请还挂起时双方已通过别的途径成为好友
	require.NoError(t, env.friends.CreateFriendEdge(ctx, 1, 2))

	before1, err := env.store.GetOrCreateVersion(ctx, 1, cache.TypeFriends)
	require.NoError(t, err)
	before2, err := env.store.GetOrCreateVersion(ctx, 2, cache.TypeFriends)
	require.NoError(t, err)

	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))

	// 建边被折叠为无操作，但双方的好友列表缓存仍然必须失效
	after1, err := env.store.GetOrCreateVersion(ctx, 1, cache.TypeFriends)
	require.NoError(t, err)
	assert.NotEqual(t, before1, after1)
	after2, err := env.store.GetOrCreateVersion(ctx, 2, cache.TypeFriends)
	require.NoError(t, err)
	assert.NotEqual(t, before2, after2)
}

func TestRejectFriendRequestRecordsTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, env.svc.RejectFriendRequest(ctx, request))

	request, err = env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, request.Status)
	require.NotNil(t, request.RejectedAt)
	assert.Equal(t, env.clock.Now(), *request.RejectedAt)

	// 拒绝不建立好友关系
	isFriend, err := env.svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, isFriend)
}

func TestRemoveFriendIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, added)

	removed, err := env.svc.RemoveFriend(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	isFriend, err := env.svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, isFriend)

	// 重复删除无害，但第二次是无操作
	removed, err = env.svc.RemoveFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveFriendNotFriendsIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before1, err := env.store.GetOrCreateVersion(ctx, 1, cache.TypeFriends)
	require.NoError(t, err)
	before2, err := env.store.GetOrCreateVersion(ctx, 2, cache.TypeFriends)
	require.NoError(t, err)

	removed, err := env.svc.RemoveFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)

	// 无操作：不发事件、不更换版本令牌
	assert.Empty(t, env.sink.events)
	after1, err := env.store.GetOrCreateVersion(ctx, 1, cache.TypeFriends)
	require.NoError(t, err)
	assert.Equal(t, before1, after1)
	after2, err := env.store.GetOrCreateVersion(ctx, 2, cache.TypeFriends)
	require.NoError(t, err)
	assert.Equal(t, before2, after2)
}

func TestAddFriendDuplicateCollapses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = env.svc.AddFriend(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = env.svc.AddFriend(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestGetFriendsReadYourWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	friends, err := env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, friends)

	// 变更后版本令牌被更换，读取必须立刻反映新状态
	_, err = env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)

	friends, err = env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, int64(2), friends[0].ID)

	friends, err = env.svc.GetFriends(ctx, 2)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, int64(1), friends[0].ID)
}

func TestGetFriendsServesSnapshotUntilBump(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	friends, err := env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	require.Len(t, friends, 1)

	// 绕过service直接改库，缓存未失效前读到的是旧快照
	require.NoError(t, env.friends.CreateFriendEdge(ctx, 1, 3))
	friends, err = env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, friends, 1)

	// 令牌更换后旧快照不再可达
	require.NoError(t, env.store.BumpVersion(ctx, 1, cache.TypeFriends))
	friends, err = env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, friends, 2)
}

func TestAreFriendsDoesNotPopulateCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.friends.CreateFriendEdge(ctx, 1, 2))

	isFriend, err := env.svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, isFriend)
	assert.Zero(t, env.store.setCalls)

	// 列表读取才回填缓存
	_, err = env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, env.store.setCalls)
}

func TestAreFriendsHitsWarmCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	_, err = env.svc.GetFriends(ctx, 1)
	require.NoError(t, err)

	// 缓存命中时不触库
	env.friends.edges = make(map[[2]int64]bool)
	isFriend, err := env.svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, isFriend)
}

func TestGetFriendRequestsSortIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFriendRequest(ctx, 2, 1)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, err = env.svc.SendFriendRequest(ctx, 3, 1)
	require.NoError(t, err)

	asc, err := env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAt)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, int64(2), asc[0].FromUserID)
	assert.Equal(t, int64(3), asc[1].FromUserID)

	desc, err := env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAtDesc)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, int64(3), desc[0].FromUserID)
	assert.Equal(t, int64(2), desc[1].FromUserID)

	byName, err := env.svc.GetFriendRequests(ctx, 1, model.SortFromUserName)
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "Bob", byName[0].FromUser.FirstName)
	assert.Equal(t, "Carol", byName[1].FromUser.FirstName)

	// 每种排序各自独立缓存
	assert.Equal(t, 3, env.store.setCalls)
}

func TestGetFriendRequestsInvalidatedBySend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	requests, err := env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAt)
	require.NoError(t, err)
	assert.Empty(t, requests)

	_, err = env.svc.SendFriendRequest(ctx, 2, 1)
	require.NoError(t, err)

	requests, err = env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAt)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, int64(2), requests[0].FromUserID)
}

func TestGetFriendRequestsInvalidatedByAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFriendRequest(ctx, 2, 1)
	require.NoError(t, err)
	requests, err := env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAt)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	request, err := env.svc.GetFriendRequest(ctx, requests[0].ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))

	requests, err = env.svc.GetFriendRequests(ctx, 1, model.SortCreatedAt)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestCacheUnavailableFallsBackToStore(t *testing.T) {
	clock := &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	users := newFakeUserDAO(
		&model.User{ID: 1, FirstName: "Alice"},
		&model.User{ID: 2, FirstName: "Bob"},
	)
	friends := newFakeFriendshipDAO(users, clock.Now)

	svc := NewService(friends, users, failingStore{}, nil, Config{
		RequestCooldown: 24 * time.Hour,
		CacheTTL:        24 * time.Hour,
	}, nopLogger{})
	svc.now = clock.Now
	ctx := context.Background()

	// 缓存整体不可用时所有操作降级为直接读写库
	added, err := svc.AddFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, added)

	list, err := svc.GetFriends(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	isFriend, err := svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, isFriend)

	removed, err := svc.RemoveFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	sent, err := svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestFriendshipEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.svc.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, sent)

	request, err := env.svc.GetFriendRequest(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.AcceptFriendRequest(ctx, request))
	removed, err := env.svc.RemoveFriend(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, removed)

	var types []string
	for _, e := range env.sink.events {
		assert.Equal(t, "friendship-events", e.topic)
		types = append(types, eventTypeOf(t, e.value))
	}
	assert.Equal(t, []string{
		EventRequestSent,
		EventFriendAdded,
		EventRequestAccepted,
		EventFriendRemoved,
	}, types)
}

func eventTypeOf(t *testing.T, data []byte) string {
	t.Helper()
	var event friendshipEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event.Type
}
