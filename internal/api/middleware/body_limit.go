package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytrack/backend/pkg/response"
)

// BodyLimit 请求体大小上限
// 声明的 Content-Length 超限直接 413；未声明长度时由 MaxBytesReader 在读取时截断，
// 绑定失败后由各 handler 返回 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
