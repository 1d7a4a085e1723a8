package handler

import "studytrack/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Educator    *EducatorHandler
	Module      *ModuleHandler
	Certificate *CertificateHandler
	Semester    *SemesterHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Educator:    NewEducatorHandler(svc.User),
		Module:      NewModuleHandler(svc.Module),
		Certificate: NewCertificateHandler(svc.Certificate),
		Semester:    NewSemesterHandler(svc.Semester),
	}
}
