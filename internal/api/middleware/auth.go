package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studytrack/backend/pkg/jwt"
	"studytrack/backend/pkg/response"
)

// 上下文键，与 handler.CtxUserID 等保持一致
const (
	ctxUserID      = "user_id"
	ctxProfileType = "profile_type"
	ctxClaims      = "claims"
)

// TokenChecker Token 黑名单查询
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// checker 为 nil 时跳过黑名单检查（未配置 Redis）
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token is invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Invalid token type")
			c.Abort()
			return
		}

		if checker != nil && claims.ID != "" {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			revoked, err := checker.IsBlacklisted(ctx, claims.ID)
			cancel()
			if err != nil {
				// Redis 故障时降级放行
				logger.Warn("黑名单检查失败", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxProfileType, claims.ProfileType)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

// ProfileAuth 档案类型权限中间件
// 检查当前用户是否具有指定档案类型之一
func ProfileAuth(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, exists := c.Get(ctxProfileType)
		if !exists {
			response.Unauthorized(c, 10002, "Unauthenticated")
			c.Abort()
			return
		}

		current, _ := profile.(string)
		for _, p := range allowed {
			if current == p {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "You do not have permission to access this resource.")
		c.Abort()
	}
}
