package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	tracecontext "social-network/pkg/context"
)

// OTelMiddleware OpenTelemetry中间件配置
type OTelMiddleware struct {
	serviceName string
}

// NewOTelMiddleware 创建OpenTelemetry中间件
func NewOTelMiddleware(serviceName string) *OTelMiddleware {
	return &OTelMiddleware{serviceName: serviceName}
}

// GinMiddleware 返回Gin的OpenTelemetry中间件
func (m *OTelMiddleware) GinMiddleware() gin.HandlerFunc {
	return otelgin.Middleware(m.serviceName)
}

// GinEnrich 把已认证的用户ID附加到span和业务上下文。
// 必须排在认证中间件之后，否则取不到调用者。
func (m *OTelMiddleware) GinEnrich() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if userID, ok := CallerID(c); ok {
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.SetAttributes(attribute.String("user.id", strconv.FormatInt(userID, 10)))
			}
			ctx = tracecontext.WithUserID(ctx, userID)
		}
		ctx = tracecontext.WithRequestID(ctx, tracecontext.GenerateRequestID())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
