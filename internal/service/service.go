package service

import (
	"go.uber.org/zap"

	"studytrack/backend/config"
	"studytrack/backend/internal/repository"
	"studytrack/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Module      ModuleService
	Certificate CertificateService
	Semester    SemesterService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	certs := NewCertificateService(repo, logger)
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:        NewUserService(repo, logger),
		Module:      NewModuleService(repo, certs, logger),
		Certificate: certs,
		Semester:    NewSemesterService(repo, logger),
	}
}
