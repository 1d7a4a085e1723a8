package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name        string `json:"name"         binding:"required,min=2,max=100"`
	Email       string `json:"email"        binding:"required,email"`
	Password    string `json:"password"     binding:"required,min=8,max=72"`
	University  string `json:"university"   binding:"omitempty,max=255"`
	Address     string `json:"address"      binding:"omitempty,max=255"`
	ProfileType string `json:"profile_type" binding:"omitempty,oneof=student educator"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest 更新个人资料请求（空值保持原值）
type UpdateProfileRequest struct {
	Name       string `json:"name"       binding:"omitempty,max=100"`
	University string `json:"university" binding:"omitempty,max=255"`
	Address    string `json:"address"    binding:"omitempty,max=255"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // 有效期（秒）
	User        UserResponse `json:"user"`
}
