package model

import (
	"time"
)

// 好友申请状态
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
	// RequestStatusUnsent 预留状态，当前没有任何操作会产生它
	RequestStatusUnsent = "unsent"
)

// 好友申请列表支持的排序字段
const (
	SortCreatedAt        = "created_at"
	SortCreatedAtDesc    = "-created_at"
	SortFromUserName     = "from_user__name"
	SortFromUserNameDesc = "-from_user__name"
)

// ValidSortFields 排序白名单，白名单之外的取值在边界层拒绝
var ValidSortFields = []string{
	SortCreatedAt,
	SortCreatedAtDesc,
	SortFromUserName,
	SortFromUserNameDesc,
}

// IsValidSort 校验排序字段是否在白名单内
func IsValidSort(sort string) bool {
	for _, s := range ValidSortFields {
		if s == sort {
			return true
		}
	}
	return false
}

// User 用户，accounts服务拥有，本服务只读
type User struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"size:255" json:"email"`
	FirstName  string    `gorm:"size:30" json:"first_name"`
	LastName   string    `gorm:"size:30" json:"last_name"`
	Role       string    `gorm:"size:20;default:write" json:"role"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// Friend 已确认的好友关系边
//
// 边是无向的，按 user_id < friend_id 规范化后只存一行，
// 配合复合唯一索引保证一对用户之间至多一条边。
type Friend struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_friend_pair" json:"user_id"`
	FriendID  int64     `gorm:"not null;uniqueIndex:idx_friend_pair;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FriendRequest 定向的好友申请
type FriendRequest struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	FromUserID int64      `gorm:"not null;index" json:"from_user_id"`
	ToUserID   int64      `gorm:"not null;index" json:"to_user_id"`
	Status     string     `gorm:"size:10;not null;default:pending" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

// BlockedUser 黑名单记录，accounts服务拥有，本服务只读
type BlockedUser struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"not null;uniqueIndex:idx_blocked_pair" json:"user_id"`
	BlockedUserID int64     `gorm:"not null;uniqueIndex:idx_blocked_pair" json:"blocked_user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SendFriendRequestRequest 发送好友申请
type SendFriendRequestRequest struct {
	ToUserID int64 `json:"to_user_id" binding:"required"`
}

// RespondFriendRequestRequest 接受/拒绝好友申请
type RespondFriendRequestRequest struct {
	FriendRequestID int64 `json:"friend_request_id" binding:"required"`
}

// RemoveFriendRequest 解除好友关系
type RemoveFriendRequest struct {
	FriendID int64 `json:"friend_id" binding:"required"`
}
