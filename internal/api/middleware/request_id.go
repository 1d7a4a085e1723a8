package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studytrack/backend/pkg/response"
)

const (
	requestIDHeader = "X-Request-ID"
	// 外部传入的 ID 超长或含非法字符时重新生成，避免污染日志
	requestIDMaxLen = 64
)

// RequestID 读取或生成请求 ID，写入上下文与响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !usableRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(response.RequestIDKey, rid)
		c.Header(requestIDHeader, rid)

		c.Next()
	}
}

// usableRequestID 仅接受 [A-Za-z0-9._-]
func usableRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
