package dao

import (
	"context"
	"time"

	"social-network/apps/friendship-service/model"
)

// FriendshipDAO 好友关系数据访问接口
type FriendshipDAO interface {
	// 好友关系
	FriendEdgeExists(ctx context.Context, userID, friendID int64) (bool, error)
	CreateFriendEdge(ctx context.Context, userID, friendID int64) error
	DeleteFriendEdge(ctx context.Context, userID, friendID int64) error
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// 好友申请
	PendingRequestExists(ctx context.Context, userID, otherID int64) (bool, error)
	RecentlyRejectedSince(ctx context.Context, fromUserID, toUserID int64, since time.Time) (bool, error)
	CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*model.FriendRequest, error)
	GetRequest(ctx context.Context, id int64) (*model.FriendRequest, error)
	ListIncomingPending(ctx context.Context, userID int64, sort string) ([]*model.FriendRequest, error)
	SetRequestStatus(ctx context.Context, id int64, status string, rejectedAt *time.Time) error
}

// UserDAO 用户数据访问接口，accounts服务的数据，本服务只读
type UserDAO interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	IsBlocked(ctx context.Context, userID, blockedUserID int64) (bool, error)
}
