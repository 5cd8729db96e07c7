package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"social-network/apps/friendship-service/dao"
	"social-network/apps/friendship-service/model"
	"social-network/pkg/cache"
	"social-network/pkg/logger"
)

// 好友关系变更事件类型
const (
	EventFriendAdded     = "friendship.friend_added"
	EventFriendRemoved   = "friendship.friend_removed"
	EventRequestSent     = "friendship.request_sent"
	EventRequestAccepted = "friendship.request_accepted"
	EventRequestRejected = "friendship.request_rejected"
)

// EventSink 事件发布接口，由Kafka生产者实现
type EventSink interface {
	SendMessage(topic string, key, value []byte) error
}

// friendshipEvent 投递到Kafka的好友关系变更事件
type friendshipEvent struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	OtherID   int64  `json:"other_user_id"`
	RequestID int64  `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Config 好友服务配置
type Config struct {
	// RequestCooldown 被拒绝后同方向再次申请的冷却时间
	RequestCooldown time.Duration
	// CacheTTL 缓存结果的过期时间
	CacheTTL time.Duration
	// EventTopic 好友关系变更事件的Kafka主题，为空则不发布
	EventTopic string
}

// Service 好友关系服务
//
// 缓存是纯粹的加速层：版本令牌或结果缓存不可用时记日志并降级
// 读库，调用方永远看不到缓存错误。数据库错误原样上抛。
type Service struct {
	friendshipDAO dao.FriendshipDAO
	userDAO       dao.UserDAO
	versions      cache.VersionStore
	results       cache.ResultCache
	events        EventSink
	cfg           Config
	now           func() time.Time
	log           logger.Logger
}

// NewService 创建好友关系服务实例，events可以为nil
func NewService(friendshipDAO dao.FriendshipDAO, userDAO dao.UserDAO, store cache.Store, events EventSink, cfg Config, log logger.Logger) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	return &Service{
		friendshipDAO: friendshipDAO,
		userDAO:       userDAO,
		versions:      store,
		results:       store,
		events:        events,
		cfg:           cfg,
		now:           time.Now,
		log:           log,
	}
}

// GetUser 按ID获取用户
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.userDAO.GetUser(ctx, id)
}

// IsBlocked 检查userID是否已将otherID拉黑
func (s *Service) IsBlocked(ctx context.Context, userID, otherID int64) (bool, error) {
	return s.userDAO.IsBlocked(ctx, userID, otherID)
}

// GetFriendRequest 按ID获取好友申请
func (s *Service) GetFriendRequest(ctx context.Context, id int64) (*model.FriendRequest, error) {
	return s.friendshipDAO.GetRequest(ctx, id)
}

// GetFriends 获取用户的好友列表，优先走缓存
func (s *Service) GetFriends(ctx context.Context, userID int64) ([]*model.User, error) {
	version := s.currentVersion(ctx, userID, cache.TypeFriends)
	if version != "" {
		if users, ok := s.cachedFriends(ctx, userID, version); ok {
			return users, nil
		}
	}

	ids, err := s.friendshipDAO.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.userDAO.ListUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if version != "" {
		s.storeFriends(ctx, userID, version, users)
	}
	return users, nil
}

// AreFriends 检查两个用户是否为好友
//
// 先窥探双方的好友列表缓存，任一方命中且包含对方即可断定；
// 都未命中时只查库，不回填缓存。
func (s *Service) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	if s.peekFriendCache(ctx, userID, otherID) || s.peekFriendCache(ctx, otherID, userID) {
		return true, nil
	}
	return s.friendshipDAO.FriendEdgeExists(ctx, userID, otherID)
}

// AddFriend 建立好友关系
//
// 返回是否实际建立了新关系。已是好友、自我好友以及并发重复创建
// 都折叠为false，不报错。
func (s *Service) AddFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	already, err := s.AreFriends(ctx, userID, friendID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	if err := s.friendshipDAO.CreateFriendEdge(ctx, userID, friendID); err != nil {
		if errors.Is(err, model.ErrConstraintViolation) {
			return false, nil
		}
		return false, err
	}

	s.bumpVersion(ctx, userID, cache.TypeFriends)
	s.bumpVersion(ctx, friendID, cache.TypeFriends)
	s.publishEvent(EventFriendAdded, userID, friendID, 0)
	return true, nil
}

// RemoveFriend 解除好友关系，返回是否实际删除了边
//
// 双方任一侧发起效果相同。不存在好友关系时是无操作：
// 不删除、不更换版本令牌、不发布事件。
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	exists, err := s.AreFriends(ctx, userID, friendID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := s.friendshipDAO.DeleteFriendEdge(ctx, userID, friendID); err != nil {
		return false, err
	}

	s.bumpVersion(ctx, userID, cache.TypeFriends)
	s.bumpVersion(ctx, friendID, cache.TypeFriends)
	s.publishEvent(EventFriendRemoved, userID, friendID, 0)
	return true, nil
}

// GetFriendRequests 获取用户收到的待处理申请，按sort排序，优先走缓存
//
// sort必须已经过白名单校验，不同sort的结果各自独立缓存。
func (s *Service) GetFriendRequests(ctx context.Context, userID int64, sort string) ([]*model.FriendRequest, error) {
	version := s.currentVersion(ctx, userID, cache.TypeFriendRequests)
	if version != "" {
		if requests, ok := s.cachedRequests(ctx, userID, sort, version); ok {
			return requests, nil
		}
	}

	requests, err := s.friendshipDAO.ListIncomingPending(ctx, userID, sort)
	if err != nil {
		return nil, err
	}

	if version != "" {
		s.storeRequests(ctx, userID, sort, version, requests)
	}
	return requests, nil
}

// SendFriendRequest 发送好友申请
//
// 返回是否实际发出。以下情形折叠为false，不报错：
// 自我申请、双方已是好友、双方之间已有待处理申请（不分方向）、
// 该方向在冷却期内被拒绝过、并发重复发送竞争到唯一冲突。
func (s *Service) SendFriendRequest(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	if fromUserID == toUserID {
		return false, nil
	}

	already, err := s.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	pending, err := s.friendshipDAO.PendingRequestExists(ctx, fromUserID, toUserID)
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	since := s.now().Add(-s.cfg.RequestCooldown)
	rejected, err := s.friendshipDAO.RecentlyRejectedSince(ctx, fromUserID, toUserID, since)
	if err != nil {
		return false, err
	}
	if rejected {
		return false, nil
	}

	request, err := s.friendshipDAO.CreateRequest(ctx, fromUserID, toUserID)
	if err != nil {
		if errors.Is(err, model.ErrConstraintViolation) {
			return false, nil
		}
		return false, err
	}

	s.bumpVersion(ctx, toUserID, cache.TypeFriendRequests)
	s.publishEvent(EventRequestSent, fromUserID, toUserID, request.ID)
	return true, nil
}

// AcceptFriendRequest 接受好友申请
//
// 状态无条件翻转为accepted，好友边的建立本身是幂等的，
// 重复接受不会产生第二条边。
func (s *Service) AcceptFriendRequest(ctx context.Context, request *model.FriendRequest) error {
	if err := s.friendshipDAO.SetRequestStatus(ctx, request.ID, model.RequestStatusAccepted, nil); err != nil {
		return err
	}

	if _, err := s.AddFriend(ctx, request.FromUserID, request.ToUserID); err != nil {
		return err
	}

	// AddFriend在双方已是好友时不换令牌，这里无条件更换，
	// 保证接受之后双方的好友列表缓存一定失效
	s.bumpVersion(ctx, request.FromUserID, cache.TypeFriends)
	s.bumpVersion(ctx, request.ToUserID, cache.TypeFriends)
	s.bumpVersion(ctx, request.ToUserID, cache.TypeFriendRequests)
	s.publishEvent(EventRequestAccepted, request.FromUserID, request.ToUserID, request.ID)
	return nil
}

// RejectFriendRequest 拒绝好友申请，记录拒绝时间用于冷却判定
func (s *Service) RejectFriendRequest(ctx context.Context, request *model.FriendRequest) error {
	rejectedAt := s.now()
	if err := s.friendshipDAO.SetRequestStatus(ctx, request.ID, model.RequestStatusRejected, &rejectedAt); err != nil {
		return err
	}

	s.bumpVersion(ctx, request.ToUserID, cache.TypeFriendRequests)
	s.publishEvent(EventRequestRejected, request.FromUserID, request.ToUserID, request.ID)
	return nil
}

// currentVersion 获取当前版本令牌，缓存不可用时返回空串并降级
func (s *Service) currentVersion(ctx context.Context, userID int64, cacheType string) string {
	version, err := s.versions.GetOrCreateVersion(ctx, userID, cacheType)
	if err != nil {
		s.log.Warn(ctx, "Cache version unavailable, falling back to store",
			logger.F("userID", userID), logger.F("cacheType", cacheType), logger.F("error", err.Error()))
		return ""
	}
	return version
}

// bumpVersion 更换版本令牌使整组缓存失效，失败只记日志
func (s *Service) bumpVersion(ctx context.Context, userID int64, cacheType string) {
	if err := s.versions.BumpVersion(ctx, userID, cacheType); err != nil {
		s.log.Warn(ctx, "Failed to bump cache version",
			logger.F("userID", userID), logger.F("cacheType", cacheType), logger.F("error", err.Error()))
	}
}

// cachedFriends 读取好友列表缓存，任何失败都按未命中处理
func (s *Service) cachedFriends(ctx context.Context, userID int64, version string) ([]*model.User, bool) {
	data, ok, err := s.results.Get(ctx, friendsCacheKey(userID, version))
	if err != nil {
		s.log.Warn(ctx, "Cache read failed, falling back to store",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	users, err := decodeFriendList(data)
	if err != nil {
		s.log.Warn(ctx, "Failed to decode cached friend list",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return nil, false
	}
	return users, true
}

// storeFriends 回填好友列表缓存，失败只记日志
func (s *Service) storeFriends(ctx context.Context, userID int64, version string, users []*model.User) {
	data, err := encodeFriendList(users)
	if err != nil {
		s.log.Warn(ctx, "Failed to encode friend list",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return
	}
	if err := s.results.Set(ctx, friendsCacheKey(userID, version), data, s.cfg.CacheTTL); err != nil {
		s.log.Warn(ctx, "Cache write failed",
			logger.F("userID", userID), logger.F("error", err.Error()))
	}
}

// cachedRequests 读取好友申请列表缓存，任何失败都按未命中处理
func (s *Service) cachedRequests(ctx context.Context, userID int64, sort, version string) ([]*model.FriendRequest, bool) {
	data, ok, err := s.results.Get(ctx, friendRequestsCacheKey(userID, sort, version))
	if err != nil {
		s.log.Warn(ctx, "Cache read failed, falling back to store",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	requests, err := decodeRequestList(data)
	if err != nil {
		s.log.Warn(ctx, "Failed to decode cached friend requests",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return nil, false
	}
	return requests, true
}

// storeRequests 回填好友申请列表缓存，失败只记日志
func (s *Service) storeRequests(ctx context.Context, userID int64, sort, version string, requests []*model.FriendRequest) {
	data, err := encodeRequestList(requests)
	if err != nil {
		s.log.Warn(ctx, "Failed to encode friend requests",
			logger.F("userID", userID), logger.F("error", err.Error()))
		return
	}
	if err := s.results.Set(ctx, friendRequestsCacheKey(userID, sort, version), data, s.cfg.CacheTTL); err != nil {
		s.log.Warn(ctx, "Cache write failed",
			logger.F("userID", userID), logger.F("error", err.Error()))
	}
}

// peekFriendCache 窥探userID的好友列表缓存里是否包含otherID，
// 未命中或出错都返回false，不回填
func (s *Service) peekFriendCache(ctx context.Context, userID, otherID int64) bool {
	version := s.currentVersion(ctx, userID, cache.TypeFriends)
	if version == "" {
		return false
	}

	users, ok := s.cachedFriends(ctx, userID, version)
	if !ok {
		return false
	}
	for _, user := range users {
		if user.ID == otherID {
			return true
		}
	}
	return false
}

// publishEvent 发布好友关系变更事件，失败只记日志
func (s *Service) publishEvent(eventType string, userID, otherID, requestID int64) {
	if s.events == nil || s.cfg.EventTopic == "" {
		return
	}

	event := friendshipEvent{
		Type:      eventType,
		UserID:    userID,
		OtherID:   otherID,
		RequestID: requestID,
		Timestamp: s.now().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error(context.Background(), "Failed to marshal friendship event",
			logger.F("type", eventType), logger.F("error", err.Error()))
		return
	}
	if err := s.events.SendMessage(s.cfg.EventTopic, []byte(strconv.FormatInt(userID, 10)), data); err != nil {
		s.log.Error(context.Background(), "Failed to publish friendship event",
			logger.F("type", eventType), logger.F("error", err.Error()))
	}
}
