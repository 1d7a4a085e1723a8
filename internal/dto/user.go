package dto

// ── 用户模块 DTO ──

// StudentListRequest 学生名单查询参数
type StudentListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	University  string `json:"university,omitempty"`
	Address     string `json:"address,omitempty"`
	ProfileType string `json:"profile_type"`
	CreatedAt   string `json:"created_at"`
}
