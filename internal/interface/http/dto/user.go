// Package dto HTTP层请求DTO,只负责参数绑定和校验
package dto

// RegisterRequest HTTP层注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"Passw0rd"`
	Nickname string `json:"nickname" binding:"required,min=2,max=50" example:"alice"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"Passw0rd"`
}

// RefreshRequest 刷新Access Token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
