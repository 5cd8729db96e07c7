package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"social-network/pkg/snowflake"
)

// maxAuditPayloadBytes 审计事件中保留的请求体上限
const maxAuditPayloadBytes = 4096

// EventSink 审计事件的发送端，由Kafka生产者实现
type EventSink interface {
	SendMessage(topic string, key, value []byte) error
}

// AuditEvent 一次请求的审计记录
type AuditEvent struct {
	EventID     int64  `json:"event_id"`
	UserID      int64  `json:"user_id,omitempty"`
	Action      string `json:"action"`
	Method      string `json:"method"`
	Payload     string `json:"payload,omitempty"`
	StatusCode  int    `json:"status_code"`
	IPAddress   string `json:"ip_address"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt int64  `json:"completed_at"`
}

// AuditMiddleware 审计日志中间件
//
// 记录每个请求的调用者、路径、请求体和结果，作为JSON事件发往Kafka，
// 由下游的日志服务落库。健康检查不记录。
type AuditMiddleware struct {
	sink   EventSink
	topic  string
	idGen  *snowflake.Snowflake
	logger kratoslog.Logger
}

// NewAuditMiddleware 创建审计日志中间件
func NewAuditMiddleware(sink EventSink, topic string, idGen *snowflake.Snowflake, logger kratoslog.Logger) *AuditMiddleware {
	return &AuditMiddleware{
		sink:   sink,
		topic:  topic,
		idGen:  idGen,
		logger: logger,
	}
}

// GinAudit Gin审计中间件
func (am *AuditMiddleware) GinAudit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.shouldSkipAudit(c.Request.URL.Path) {
			c.Next()
			return
		}

		started := time.Now()
		payload := am.capturePayload(c)

		c.Next()

		userID, _ := CallerID(c)
		event := AuditEvent{
			EventID:     am.idGen.Generate(),
			UserID:      userID,
			Action:      c.Request.URL.Path,
			Method:      c.Request.Method,
			Payload:     payload,
			StatusCode:  c.Writer.Status(),
			IPAddress:   c.ClientIP(),
			StartedAt:   started.UnixMilli(),
			CompletedAt: time.Now().UnixMilli(),
		}

		value, err := json.Marshal(event)
		if err != nil {
			am.logger.Log(kratoslog.LevelError, "msg", "Failed to marshal audit event", "error", err)
			return
		}

		key := []byte(strconv.FormatInt(event.UserID, 10))
		if err := am.sink.SendMessage(am.topic, key, value); err != nil {
			// 审计失败不影响请求本身
			am.logger.Log(kratoslog.LevelError, "msg", "Failed to publish audit event", "error", err)
		}
	}
}

// capturePayload 读取请求体并还原，超长截断
func (am *AuditMiddleware) capturePayload(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditPayloadBytes+1))
	if err != nil {
		return ""
	}
	// 还原body供后续handler读取
	rest, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), bytes.NewReader(rest)))

	if len(body) > maxAuditPayloadBytes {
		body = body[:maxAuditPayloadBytes]
	}
	return string(body)
}

// shouldSkipAudit 判断路径是否跳过审计
func (am *AuditMiddleware) shouldSkipAudit(path string) bool {
	return strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/metrics")
}
