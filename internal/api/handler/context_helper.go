package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "studytrack/backend/pkg/errors"
	"studytrack/backend/pkg/jwt"
	"studytrack/backend/pkg/response"
)

// 上下文键，由 JWTAuth 中间件注入
const (
	CtxUserID      = "user_id"
	CtxProfileType = "profile_type"
	CtxClaims      = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	return s, true
}

// GetClaims 提取当前请求的 Token 声明；不存在时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(CtxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// writeDomainError 未被模块专属分支处理的错误按类别映射：
// ValidationError → 400，NotFoundError → 404，ErrForbidden → 403，其余 → 500
func writeDomainError(c *gin.Context, err error, validationCode, notFoundCode, forbiddenCode int) {
	switch {
	case pkgerrors.IsValidation(err):
		response.BadRequest(c, validationCode, err.Error())
	case pkgerrors.IsNotFound(err):
		response.NotFound(c, notFoundCode, err.Error())
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, forbiddenCode, "You do not have permission to access this resource.")
	default:
		response.InternalError(c)
	}
}
