package dto

// ── 学习模块 DTO ──

// CreateModuleRequest 创建模块请求
// 字段校验在 service 层完成，以返回统一的业务错误信息
type CreateModuleRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Deadline     string        `json:"deadline"` // "2026-06-30"
	TotalLessons *NumericInput `json:"total_lessons"`
}

// UpdateModuleRequest 部分更新模块请求
// Title/Description/Deadline 为空字符串时保持原值
type UpdateModuleRequest struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Deadline         string        `json:"deadline"`
	Completed        *bool         `json:"completed"`
	TotalLessons     *NumericInput `json:"total_lessons"`
	CompletedLessons *NumericInput `json:"completed_lessons"`
}

// AdjustLessonsRequest 课时增减请求（正数前进，负数回退）
type AdjustLessonsRequest struct {
	Increment *NumericInput `json:"increment"`
}

// ModuleResponse 模块信息响应
type ModuleResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Completed        bool   `json:"completed"`
	Progress         int    `json:"progress"` // 完成百分比 0-100
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ModuleProgressResponse 模块进度更新响应
type ModuleProgressResponse struct {
	Module            ModuleResponse       `json:"module"`
	CertificateEarned bool                 `json:"certificate_earned"`
	Certificate       *CertificateResponse `json:"certificate,omitempty"`
}
