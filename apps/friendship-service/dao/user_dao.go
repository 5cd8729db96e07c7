package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"social-network/apps/friendship-service/model"
	"social-network/pkg/database"
)

// userDAO 用户数据访问对象，只读
type userDAO struct {
	db *database.PostgreSQL
}

// NewUserDAO 创建用户DAO实例
func NewUserDAO(db *database.PostgreSQL) UserDAO {
	return &userDAO{db: db}
}

// GetUser 按ID获取用户
func (d *userDAO) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// ListUsersByIDs 批量获取用户
func (d *userDAO) ListUsersByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	var users []*model.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %v", err)
	}
	return users, nil
}

// IsBlocked 检查userID是否已将blockedUserID拉黑
func (d *userDAO) IsBlocked(ctx context.Context, userID, blockedUserID int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&model.BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", userID, blockedUserID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check blocklist: %v", err)
	}
	return count > 0, nil
}
