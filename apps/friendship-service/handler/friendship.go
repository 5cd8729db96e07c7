package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"social-network/apps/friendship-service/model"
	tracecontext "social-network/pkg/context"
	"social-network/pkg/httpx"
	"social-network/pkg/logger"
	"social-network/pkg/middleware"
)

// SendFriendRequest 发送好友申请
//
// 收件人不存在返回404，收件人已拉黑发送者返回403，
// 其余未发送情形（已是好友、重复申请、冷却期）返回200且request_sent=false。
func (h *HTTPHandler) SendFriendRequest(c *gin.Context) {
	ctx := c.Request.Context()

	callerID, ok := middleware.CallerID(c)
	if !ok {
		httpx.Unauthorized(c, "Missing authenticated user")
		return
	}

	var req model.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(ctx, "Invalid send friend request", logger.F("error", err.Error()))
		httpx.BadRequest(c, "Invalid request format")
		return
	}

	ctx = tracecontext.WithUserID(ctx, callerID)

	if _, err := h.svc.GetUser(ctx, req.ToUserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			httpx.NotFound(c, "User not found")
			return
		}
		h.logger.Error(ctx, "Failed to load recipient",
			logger.F("error", err.Error()), logger.F("toUserID", req.ToUserID))
		httpx.InternalError(c, "Failed to send friend request")
		return
	}

	blocked, err := h.svc.IsBlocked(ctx, req.ToUserID, callerID)
	if err != nil {
		h.logger.Error(ctx, "Failed to check blocklist",
			logger.F("error", err.Error()), logger.F("toUserID", req.ToUserID))
		httpx.InternalError(c, "Failed to send friend request")
		return
	}
	if blocked {
		httpx.Forbidden(c, "Recipient is not accepting requests from you")
		return
	}

	sent, err := h.svc.SendFriendRequest(ctx, callerID, req.ToUserID)
	if err != nil {
		h.logger.Error(ctx, "Send friend request failed",
			logger.F("error", err.Error()),
			logger.F("fromUserID", callerID),
			logger.F("toUserID", req.ToUserID))
		httpx.InternalError(c, "Failed to send friend request")
		return
	}

	h.logger.Info(ctx, "Send friend request finished",
		logger.F("fromUserID", callerID),
		logger.F("toUserID", req.ToUserID),
		logger.F("requestSent", sent))

	message := "好友申请已发送"
	if !sent {
		message = "好友申请未发送"
	}
	httpx.OK(c, message, gin.H{"request_sent": sent})
}

// AcceptFriendRequest 接受好友申请
//
// 申请不存在返回404，调用者不是申请的收件人返回401。
func (h *HTTPHandler) AcceptFriendRequest(c *gin.Context) {
	h.respondToRequest(c, true)
}

// RejectFriendRequest 拒绝好友申请
func (h *HTTPHandler) RejectFriendRequest(c *gin.Context) {
	h.respondToRequest(c, false)
}

// respondToRequest 接受/拒绝共用的校验和分发
func (h *HTTPHandler) respondToRequest(c *gin.Context, accept bool) {
	ctx := c.Request.Context()

	callerID, ok := middleware.CallerID(c)
	if !ok {
		httpx.Unauthorized(c, "Missing authenticated user")
		return
	}

	var req model.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(ctx, "Invalid respond friend request", logger.F("error", err.Error()))
		httpx.BadRequest(c, "Invalid request format")
		return
	}

	ctx = tracecontext.WithUserID(ctx, callerID)

	request, err := h.svc.GetFriendRequest(ctx, req.FriendRequestID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			httpx.NotFound(c, "Friend request not found")
			return
		}
		h.logger.Error(ctx, "Failed to load friend request",
			logger.F("error", err.Error()), logger.F("requestID", req.FriendRequestID))
		httpx.InternalError(c, "Failed to respond to friend request")
		return
	}

	// 只有申请的收件人可以处理它
	if request.ToUserID != callerID {
		httpx.Unauthorized(c, "Not the addressee of this friend request")
		return
	}

	if accept {
		err = h.svc.AcceptFriendRequest(ctx, request)
	} else {
		err = h.svc.RejectFriendRequest(ctx, request)
	}
	if err != nil {
		h.logger.Error(ctx, "Respond to friend request failed",
			logger.F("error", err.Error()),
			logger.F("requestID", request.ID),
			logger.F("accept", accept))
		httpx.InternalError(c, "Failed to respond to friend request")
		return
	}

	h.logger.Info(ctx, "Respond to friend request finished",
		logger.F("requestID", request.ID),
		logger.F("accept", accept))

	message := "好友申请已接受"
	if !accept {
		message = "好友申请已拒绝"
	}
	httpx.OK(c, message, nil)
}

// RemoveFriend 解除好友关系
//
// 与发送申请一样返回执行结果：不存在好友关系时friend_removed为false。
func (h *HTTPHandler) RemoveFriend(c *gin.Context) {
	ctx := c.Request.Context()

	callerID, ok := middleware.CallerID(c)
	if !ok {
		httpx.Unauthorized(c, "Missing authenticated user")
		return
	}

	var req model.RemoveFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(ctx, "Invalid remove friend request", logger.F("error", err.Error()))
		httpx.BadRequest(c, "Invalid request format")
		return
	}

	ctx = tracecontext.WithUserID(ctx, callerID)

	removed, err := h.svc.RemoveFriend(ctx, callerID, req.FriendID)
	if err != nil {
		h.logger.Error(ctx, "Remove friend failed",
			logger.F("error", err.Error()),
			logger.F("userID", callerID),
			logger.F("friendID", req.FriendID))
		httpx.InternalError(c, "Failed to remove friend")
		return
	}

	h.logger.Info(ctx, "Remove friend finished",
		logger.F("userID", callerID),
		logger.F("friendID", req.FriendID),
		logger.F("friendRemoved", removed))

	message := "好友已删除"
	if !removed {
		message = "好友关系不存在"
	}
	httpx.OK(c, message, gin.H{"friend_removed": removed})
}

// GetFriends 获取当前用户的好友列表
func (h *HTTPHandler) GetFriends(c *gin.Context) {
	ctx := c.Request.Context()

	callerID, ok := middleware.CallerID(c)
	if !ok {
		httpx.Unauthorized(c, "Missing authenticated user")
		return
	}

	ctx = tracecontext.WithUserID(ctx, callerID)

	friends, err := h.svc.GetFriends(ctx, callerID)
	if err != nil {
		h.logger.Error(ctx, "Get friends failed",
			logger.F("error", err.Error()), logger.F("userID", callerID))
		httpx.InternalError(c, "Failed to get friends")
		return
	}

	httpx.OK(c, "获取好友列表成功", gin.H{"friends": h.converter.BuildUserInfoList(friends)})
}

// GetFriendRequests 获取当前用户收到的待处理申请
//
// sort取值限定在白名单内，缺省按created_at升序。
func (h *HTTPHandler) GetFriendRequests(c *gin.Context) {
	ctx := c.Request.Context()

	callerID, ok := middleware.CallerID(c)
	if !ok {
		httpx.Unauthorized(c, "Missing authenticated user")
		return
	}

	sort := c.DefaultQuery("sort", model.SortCreatedAt)
	if !model.IsValidSort(sort) {
		httpx.BadRequest(c, "Invalid sort field")
		return
	}

	ctx = tracecontext.WithUserID(ctx, callerID)

	requests, err := h.svc.GetFriendRequests(ctx, callerID, sort)
	if err != nil {
		h.logger.Error(ctx, "Get friend requests failed",
			logger.F("error", err.Error()),
			logger.F("userID", callerID),
			logger.F("sort", sort))
		httpx.InternalError(c, "Failed to get friend requests")
		return
	}

	httpx.OK(c, "获取好友申请列表成功", gin.H{"requests": h.converter.BuildFriendRequestInfoList(requests)})
}
