package converter

import (
	"time"

	"social-network/apps/friendship-service/model"
)

// Converter 模型到HTTP响应的转换器
type Converter struct{}

// NewConverter 创建转换器实例
func NewConverter() *Converter {
	return &Converter{}
}

// UserInfo 用户响应
type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FriendRequestInfo 好友申请响应
type FriendRequestInfo struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	FromUser   *UserInfo `json:"from_user,omitempty"`
	ToUser     *UserInfo `json:"to_user,omitempty"`
}

// SendFriendRequestResult 发送好友申请的结果
type SendFriendRequestResult struct {
	RequestSent bool `json:"request_sent"`
}

// BuildUserInfo 构建用户响应
func (cv *Converter) BuildUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}
	return &UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// BuildUserInfoList 构建用户列表响应
func (cv *Converter) BuildUserInfoList(users []*model.User) []*UserInfo {
	result := make([]*UserInfo, 0, len(users))
	for _, user := range users {
		result = append(result, cv.BuildUserInfo(user))
	}
	return result
}

// BuildFriendRequestInfo 构建好友申请响应
func (cv *Converter) BuildFriendRequestInfo(request *model.FriendRequest) *FriendRequestInfo {
	if request == nil {
		return nil
	}
	return &FriendRequestInfo{
		ID:         request.ID,
		FromUserID: request.FromUserID,
		ToUserID:   request.ToUserID,
		Status:     request.Status,
		CreatedAt:  request.CreatedAt,
		FromUser:   cv.BuildUserInfo(request.FromUser),
		ToUser:     cv.BuildUserInfo(request.ToUser),
	}
}

// BuildFriendRequestInfoList 构建好友申请列表响应
func (cv *Converter) BuildFriendRequestInfoList(requests []*model.FriendRequest) []*FriendRequestInfo {
	result := make([]*FriendRequestInfo, 0, len(requests))
	for _, request := range requests {
		result = append(result, cv.BuildFriendRequestInfo(request))
	}
	return result
}
