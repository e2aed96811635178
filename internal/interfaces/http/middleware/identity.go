// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"z-multimodal-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// IAPUserHeader IAP 注入的认证用户头
	// 值形如 accounts.google.com:alice@example.com
	IAPUserHeader = "X-Goog-Authenticated-User-Email"

	// AnonymousUser 无认证头时的兜底用户名
	AnonymousUser = "anonymous"

	userNameKey = "user_name"
)

// Identity 用户身份解析中间件
// 从 IAP 头提取邮箱本地部分作为用户名，无头或格式异常时回落为 anonymous
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userName := parseIAPUser(c.GetHeader(IAPUserHeader))

		c.Set(userNameKey, userName)

		ctx := logger.WithContext(c.Request.Context(), logger.UserKey, userName)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserNameFromGin 从 Gin Context 读取用户名
func UserNameFromGin(c *gin.Context) string {
	if name := c.GetString(userNameKey); name != "" {
		return name
	}
	return AnonymousUser
}

// parseIAPUser 解析 IAP 用户头
func parseIAPUser(header string) string {
	if header == "" {
		return AnonymousUser
	}

	email := header
	if idx := strings.LastIndex(header, ":"); idx >= 0 {
		email = header[idx+1:]
	}

	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return AnonymousUser
	}
	return local
}
