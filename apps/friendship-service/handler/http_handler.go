package handler

import (
	"github.com/gin-gonic/gin"

	"social-network/apps/friendship-service/converter"
	"social-network/apps/friendship-service/service"
	"social-network/pkg/logger"
	"social-network/pkg/middleware"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc       *service.Service
	converter *converter.Converter
	logger    logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		converter: converter.NewConverter(),
		logger:    log,
	}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/v1/friendship")
	group.Use(middleware.RoleBased())
	{
		group.POST("/send_request", h.SendFriendRequest)
		group.POST("/accept_request", h.AcceptFriendRequest)
		group.POST("/reject_request", h.RejectFriendRequest)
		group.POST("/remove_friend", h.RemoveFriend)
		group.GET("/friends", h.GetFriends)
		group.GET("/requests", h.GetFriendRequests)
	}
}
