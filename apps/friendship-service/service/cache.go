package service

import (
	"encoding/json"
	"fmt"
	"time"

	"social-network/apps/friendship-service/model"
)

// 缓存key构造集中在这里，避免读写两侧的key格式漂移。
// 版本令牌嵌入key本身，令牌更换后旧key不会再被任何读者构造出来，
// 旧条目由TTL自然回收。
func friendsCacheKey(userID int64, version string) string {
	return fmt.Sprintf("friends_cache:%d:%s", userID, version)
}

func friendRequestsCacheKey(userID int64, sort, version string) string {
	return fmt.Sprintf("friend_requests_cache:%d:%s:%s", userID, sort, version)
}

// snapshotVersion 快照序列化契约的版本号。
// 只缓存下面列出的字段，User实体的schema变更不会让旧快照
// 反序列化出错；契约变更时递增版本号，旧快照直接当作未命中。
const snapshotVersion = 1

// cachedUser 缓存中的用户快照
type cachedUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// cachedFriendList 好友列表快照
type cachedFriendList struct {
	Version int          `json:"v"`
	Users   []cachedUser `json:"users"`
}

// cachedRequest 好友申请快照
type cachedRequest struct {
	ID         int64       `json:"id"`
	FromUserID int64       `json:"from_user_id"`
	ToUserID   int64       `json:"to_user_id"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	RejectedAt *time.Time  `json:"rejected_at,omitempty"`
	FromUser   *cachedUser `json:"from_user,omitempty"`
	ToUser     *cachedUser `json:"to_user,omitempty"`
}

// cachedRequestList 好友申请列表快照
type cachedRequestList struct {
	Version  int             `json:"v"`
	Requests []cachedRequest `json:"requests"`
}

func toCachedUser(user *model.User) *cachedUser {
	if user == nil {
		return nil
	}
	return &cachedUser{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func fromCachedUser(user *cachedUser) *model.User {
	if user == nil {
		return nil
	}
	return &model.User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// encodeFriendList 序列化好友列表快照
func encodeFriendList(users []*model.User) ([]byte, error) {
	snapshot := cachedFriendList{Version: snapshotVersion, Users: make([]cachedUser, 0, len(users))}
	for _, user := range users {
		snapshot.Users = append(snapshot.Users, *toCachedUser(user))
	}
	return json.Marshal(snapshot)
}

// decodeFriendList 反序列化好友列表快照，契约版本不符时报错
func decodeFriendList(data []byte) ([]*model.User, error) {
	var snapshot cachedFriendList
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Version != snapshotVersion {
		return nil, fmt.Errorf("unexpected snapshot version %d", snapshot.Version)
	}

	users := make([]*model.User, 0, len(snapshot.Users))
	for i := range snapshot.Users {
		users = append(users, fromCachedUser(&snapshot.Users[i]))
	}
	return users, nil
}

// encodeRequestList 序列化好友申请列表快照
func encodeRequestList(requests []*model.FriendRequest) ([]byte, error) {
	snapshot := cachedRequestList{Version: snapshotVersion, Requests: make([]cachedRequest, 0, len(requests))}
	for _, request := range requests {
		snapshot.Requests = append(snapshot.Requests, cachedRequest{
			ID:         request.ID,
			FromUserID: request.FromUserID,
			ToUserID:   request.ToUserID,
			Status:     request.Status,
			CreatedAt:  request.CreatedAt,
			UpdatedAt:  request.UpdatedAt,
			RejectedAt: request.RejectedAt,
			FromUser:   toCachedUser(request.FromUser),
			ToUser:     toCachedUser(request.ToUser),
		})
	}
	return json.Marshal(snapshot)
}

// decodeRequestList 反序列化好友申请列表快照
func decodeRequestList(data []byte) ([]*model.FriendRequest, error) {
	var snapshot cachedRequestList
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Version != snapshotVersion {
		return nil, fmt.Errorf("unexpected snapshot version %d", snapshot.Version)
	}

	requests := make([]*model.FriendRequest, 0, len(snapshot.Requests))
	for _, cached := range snapshot.Requests {
		requests = append(requests, &model.FriendRequest{
			ID:         cached.ID,
			FromUserID: cached.FromUserID,
			ToUserID:   cached.ToUserID,
			Status:     cached.Status,
			CreatedAt:  cached.CreatedAt,
			UpdatedAt:  cached.UpdatedAt,
			RejectedAt: cached.RejectedAt,
			FromUser:   fromCachedUser(cached.FromUser),
			ToUser:     fromCachedUser(cached.ToUser),
		})
	}
	return requests, nil
}
