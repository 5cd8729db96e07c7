package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"social-network/apps/friendship-service/model"
	"social-network/pkg/database"
)

// friendshipDAO 好友数据访问对象
type friendshipDAO struct {
	db *database.PostgreSQL
}

// NewFriendshipDAO 创建好友DAO实例
func NewFriendshipDAO(db *database.PostgreSQL) FriendshipDAO {
	return &friendshipDAO{db: db}
}

// Migrate 迁移好友相关表结构
//
// users和blocked_users表由accounts服务拥有，这里不迁移。
// pending申请的无序对唯一性靠部分唯一索引兜底，并发重复发送
// 竞争到插入时会触发唯一冲突，service层把它折叠为"未发送"。
func Migrate(db *database.PostgreSQL) error {
	if err := db.AutoMigrate(&model.Friend{}, &model.FriendRequest{}); err != nil {
		return fmt.Errorf("failed to migrate friendship tables: %v", err)
	}

	idx := `CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_request_pending_pair
		ON friend_requests (LEAST(from_user_id, to_user_id), GREATEST(from_user_id, to_user_id))
		WHERE status = 'pending'`
	if err := db.GetDB().Exec(idx).Error; err != nil {
		return fmt.Errorf("failed to create pending request index: %v", err)
	}
	return nil
}

// canonicalPair 无序对规范化，小ID在前
func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FriendEdgeExists 检查两个用户之间是否存在好友边
func (d *friendshipDAO) FriendEdgeExists(ctx context.Context, userID, friendID int64) (bool, error) {
	lo, hi := canonicalPair(userID, friendID)

	var count int64
	if err := d.db.WithContext(ctx).Model(&model.Friend{}).
		Where("user_id = ? AND friend_id = ?", lo, hi).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check friend edge: %v", err)
	}
	return count > 0, nil
}

// CreateFriendEdge 创建好友边
func (d *friendshipDAO) CreateFriendEdge(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return model.ErrConstraintViolation
	}

	lo, hi := canonicalPair(userID, friendID)
	friend := &model.Friend{UserID: lo, FriendID: hi}
	if err := d.db.WithContext(ctx).Create(friend).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrConstraintViolation
		}
		return fmt.Errorf("failed to create friend edge: %v", err)
	}
	return nil
}

// DeleteFriendEdge 删除好友边，不存在时不报错
func (d *friendshipDAO) DeleteFriendEdge(ctx context.Context, userID, friendID int64) error {
	lo, hi := canonicalPair(userID, friendID)
	if err := d.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", lo, hi).
		Delete(&model.Friend{}).Error; err != nil {
		return fmt.Errorf("failed to delete friend edge: %v", err)
	}
	return nil
}

// ListFriendIDs 列出用户所有好友的ID
//
// 边按规范化方向存储，用户可能出现在任一列。
func (d *friendshipDAO) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var edges []*model.Friend
	if err := d.db.WithContext(ctx).
		Where("user_id = ? OR friend_id = ?", userID, userID).
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to list friend edges: %v", err)
	}

	ids := make([]int64, 0, len(edges))
	for _, edge := range edges {
		if edge.UserID == userID {
			ids = append(ids, edge.FriendID)
		} else {
			ids = append(ids, edge.UserID)
		}
	}
	return ids, nil
}

// PendingRequestExists 检查无序对之间是否存在待处理申请（不分方向）
func (d *friendshipDAO) PendingRequestExists(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("status = ?", model.RequestStatusPending).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending request: %v", err)
	}
	return count > 0, nil
}

// RecentlyRejectedSince 检查 from->to 方向的申请在since之后是否被拒绝过
func (d *friendshipDAO) RecentlyRejectedSince(ctx context.Context, fromUserID, toUserID int64, since time.Time) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ? AND rejected_at >= ?",
			fromUserID, toUserID, model.RequestStatusRejected, since).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check rejected request: %v", err)
	}
	return count > 0, nil
}

// CreateRequest 创建待处理的好友申请
func (d *friendshipDAO) CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*model.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, model.ErrConstraintViolation
	}

	request := &model.FriendRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     model.RequestStatusPending,
	}
	if err := d.db.WithContext(ctx).Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, model.ErrConstraintViolation
		}
		return nil, fmt.Errorf("failed to create friend request: %v", err)
	}
	return request, nil
}

// GetRequest 按ID获取好友申请
func (d *friendshipDAO) GetRequest(ctx context.Context, id int64) (*model.FriendRequest, error) {
	var request model.FriendRequest
	if err := d.db.WithContext(ctx).
		Preload("FromUser").Preload("ToUser").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get friend request: %v", err)
	}
	return &request, nil
}

// ListIncomingPending 列出用户收到的待处理申请
//
// 按申请人排序时预加载from_user，否则预加载to_user，
// 避免逐行二次查询。
func (d *friendshipDAO) ListIncomingPending(ctx context.Context, userID int64, sort string) ([]*model.FriendRequest, error) {
	field := strings.TrimPrefix(sort, "-")
	desc := strings.HasPrefix(sort, "-")

	query := d.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("to_user_id = ? AND status = ?", userID, model.RequestStatusPending)

	query = query.Preload(counterpartAssociation(field))
	query = query.Order(orderClause(field, desc))

	var requests []*model.FriendRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %v", err)
	}
	return requests, nil
}

// counterpartAssociation 排序字段对应的预加载关联
func counterpartAssociation(field string) string {
	if strings.HasPrefix(field, "from_user") {
		return "FromUser"
	}
	return "ToUser"
}

// orderClause 白名单排序字段到SQL排序的映射
func orderClause(field string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	if strings.HasPrefix(field, "from_user") {
		return fmt.Sprintf(
			"(SELECT u.first_name FROM users u WHERE u.id = friend_requests.from_user_id) %s, "+
				"(SELECT u.last_name FROM users u WHERE u.id = friend_requests.from_user_id) %s", dir, dir)
	}
	return fmt.Sprintf("friend_requests.created_at %s", dir)
}

// SetRequestStatus 更新申请状态，拒绝时写入拒绝时间
func (d *friendshipDAO) SetRequestStatus(ctx context.Context, id int64, status string, rejectedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if rejectedAt != nil {
		updates["rejected_at"] = rejectedAt
	}

	if err := d.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update friend request status: %v", err)
	}
	return nil
}
