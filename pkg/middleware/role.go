package middleware

import (
	"github.com/gin-gonic/gin"

	"social-network/pkg/httpx"
)

// 用户角色
const (
	RoleRead  = "read"
	RoleWrite = "write"
	RoleAdmin = "admin"
)

// rolePermissions HTTP方法到允许角色的映射
var rolePermissions = map[string][]string{
	"GET":    {RoleRead, RoleWrite, RoleAdmin},
	"POST":   {RoleWrite, RoleAdmin},
	"PUT":    {RoleWrite, RoleAdmin},
	"PATCH":  {RoleWrite, RoleAdmin},
	"DELETE": {RoleAdmin},
}

// RoleBased 基于角色的HTTP方法访问控制
//
// 读角色只允许查询，写角色允许发起变更，删除操作仅限管理员。
func RoleBased() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		if role == "" {
			httpx.Forbidden(c, "Role not resolved")
			c.Abort()
			return
		}

		allowed := rolePermissions[c.Request.Method]
		for _, r := range allowed {
			if r == role {
				c.Next()
				return
			}
		}

		httpx.Forbidden(c, "Role not allowed for this operation")
		c.Abort()
	}
}
