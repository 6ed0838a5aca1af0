// Package middleware gin中间件:认证、请求日志、指标
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/response"
)

// Context中的键
const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxNickname = "nickname"
	ctxRole     = "role"
	ctxToken    = "access_token"
)

// TokenBlacklist 已登出Token的黑名单
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 1. 从Header提取Bearer Token
// 2. 检查黑名单(登出后的Token立即失效)
// 3. 验证签名和过期时间
// 4. 将用户信息注入gin.Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			response.Error(c, apperrors.ErrInvalidToken.WithMessage("Token格式错误"))
			c.Abort()
			return
		}

		blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if blacklisted {
			response.Error(c, apperrors.ErrTokenExpired.WithMessage("Token已失效，请重新登录"))
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // ErrTokenExpired / ErrInvalidToken
			c.Abort()
			return
		}

		setClaims(c, claims, tokenString)
		c.Next()
	}
}

// RequireAdmin 要求管理员角色,必须放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			logger.Warn(c.Request.Context()).
				Uint("user_id", GetUserID(c)).
				Str("path", c.FullPath()).
				Msg("非管理员访问管理接口")
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选登录
// 有合法Token时注入用户信息,否则作为匿名用户继续(商品列表等公开接口)
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err == nil && !blacklisted {
			if claims, err := m.jwtManager.ParseToken(tokenString); err == nil {
				setClaims(c, claims, tokenString)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *jwt.Claims, token string) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxNickname, claims.Nickname)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxToken, token)
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetUserID 当前登录用户ID,未登录为0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetEmail 当前登录用户邮箱
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetRole 当前登录用户角色
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// IsAdmin 当前用户是否为管理员
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == jwt.RoleAdmin
}

// GetToken 当前请求的Access Token(登出时加入黑名单)
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// MustGetUserID 用于已经通过RequireAuth的Handler,取不到时panic
func MustGetUserID(c *gin.Context) uint {
	userID := GetUserID(c)
	if userID == 0 {
		panic("user_id not found in context")
	}
	return userID
}
