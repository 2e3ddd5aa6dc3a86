// Package middleware 提供 gin 中间件。
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"doc-qa-go/pkg/log"
)

// RequestLogger 以结构化字段记录每个 HTTP 请求的方法、路径、状态与耗时。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Infow("HTTP 请求",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"cost", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery 捕获处理过程中的 panic，记录后返回 500。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorf("请求处理 panic: %v", recovered)
		c.AbortWithStatusJSON(500, gin.H{"code": 1, "message": "服务内部错误"})
	})
}
