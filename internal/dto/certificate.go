package dto

// ── 证书模块 DTO ──

// IssueCertificateRequest 直接签发证书请求
type IssueCertificateRequest struct {
	ModuleID string `json:"module_id"`
}

// CertificateResponse 证书信息响应
type CertificateResponse struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	ModuleID          string `json:"module_id"`
	ModuleName        string `json:"module_name"`
	UserName          string `json:"user_name"`
	TotalLessons      int    `json:"total_lessons"`
	CompletionDate    string `json:"completion_date"`
	ModuleTitle       string `json:"module_title,omitempty"`
	ModuleDescription string `json:"module_description,omitempty"`
}
