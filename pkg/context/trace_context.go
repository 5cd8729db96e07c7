package context

import (
	"context"
	"strconv"

	"github.com/google/uuid"
)

// 上下文键类型
type contextKey string

const (
	// 业务相关的上下文键
	UserIDKey    contextKey = "user_id"
	RequestIDKey contextKey = "request_id"
)

// WithUserID 在context中设置用户ID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, strconv.FormatInt(userID, 10))
}

// UserID 从context中取出用户ID
func UserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// WithRequestID 在context中设置请求ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID 从context中取出请求ID
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateRequestID 生成请求ID
func GenerateRequestID() string {
	return uuid.NewString()
}
