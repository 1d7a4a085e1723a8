package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
	pkgerrors "studytrack/backend/pkg/errors"
	"studytrack/backend/pkg/metrics"
)

// ── 学习模块业务错误 ──

var (
	ErrModuleNotFound       = pkgerrors.NotFound("Module not found.")
	ErrModuleNegativeLesson = pkgerrors.Validation("Cannot have negative completed lessons")
)

const (
	msgTotalLessonsInvalid     = "Total lessons must be a valid positive number"
	msgCompletedLessonsInvalid = "Completed lessons must be a valid positive number"
	msgIncrementInvalid        = "increment must be a valid integer"
)

// ModuleProgressResult 进度变更结果
// Module 为主结果；证书签发为附带结果，失败时记录在 IssueErr 而不影响模块更新
type ModuleProgressResult struct {
	Module            *dto.ModuleResponse
	CertificateEarned bool
	Certificate       *dto.CertificateResponse
	IssueErr          error
}

// Response 转换为接口响应
func (r *ModuleProgressResult) Response() *dto.ModuleProgressResponse {
	return &dto.ModuleProgressResponse{
		Module:            *r.Module,
		CertificateEarned: r.CertificateEarned,
		Certificate:       r.Certificate,
	}
}

// ModuleService 学习模块业务接口
type ModuleService interface {
	Create(ctx context.Context, userID string, req *dto.CreateModuleRequest) (*dto.ModuleResponse, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.ModuleResponse, error)
	List(ctx context.Context, userID string) ([]dto.ModuleResponse, error)
	Update(ctx context.Context, id, callerID string, req *dto.UpdateModuleRequest) (*ModuleProgressResult, error)
	// AdjustLessons 按增量调整已完成课时
	AdjustLessons(ctx context.Context, id, callerID string, increment *dto.NumericInput) (*ModuleProgressResult, error)
	// Delete 在同一事务内先删除该模块的全部证书，再删除模块
	Delete(ctx context.Context, id, callerID string) error
	// ExportDeadlines 导出带截止日期的模块为 iCalendar
	ExportDeadlines(ctx context.Context, userID string) (string, error)
}

type moduleService struct {
	repo   *repository.Repository
	certs  CertificateService
	logger *zap.Logger
}

// NewModuleService 创建 ModuleService 实例
func NewModuleService(repo *repository.Repository, certs CertificateService, logger *zap.Logger) ModuleService {
	return &moduleService{repo: repo, certs: certs, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *moduleService) Create(ctx context.Context, userID string, req *dto.CreateModuleRequest) (*dto.ModuleResponse, error) {
	if err := requireField("userId", userID); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}

	module := &model.Module{
		UserID: userID,
		Title:  req.Title,
	}

	if req.TotalLessons != nil {
		total, err := parseNonNegative(*req.TotalLessons, msgTotalLessonsInvalid)
		if err != nil {
			return nil, err
		}
		module.TotalLessons = total
	}
	if req.Description != "" {
		desc := req.Description
		module.Description = &desc
	}
	if req.Deadline != "" {
		deadline, err := parseDate("deadline", req.Deadline)
		if err != nil {
			return nil, err
		}
		module.Deadline = &deadline
	}

	if err := s.repo.Module.Create(ctx, module); err != nil {
		s.logger.Error("创建模块失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return toModuleResponse(module), nil
}

// ────────────────────── Read ──────────────────────

func (s *moduleService) GetByID(ctx context.Context, id, callerID string) (*dto.ModuleResponse, error) {
	module, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return toModuleResponse(module), nil
}

func (s *moduleService) List(ctx context.Context, userID string) ([]dto.ModuleResponse, error) {
	modules, err := s.repo.Module.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询模块列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ModuleResponse, 0, len(modules))
	for i := range modules {
		result = append(result, *toModuleResponse(&modules[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *moduleService) Update(ctx context.Context, id, callerID string, req *dto.UpdateModuleRequest) (*ModuleProgressResult, error) {
	current, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	// 在副本上应用变更，校验失败时不影响原记录
	updated := *current

	// 空字符串保持原值
	if req.Title != "" {
		updated.Title = req.Title
	}
	if req.Description != "" {
		desc := req.Description
		updated.Description = &desc
	}
	if req.Deadline != "" {
		deadline, err := parseDate("deadline", req.Deadline)
		if err != nil {
			return nil, err
		}
		updated.Deadline = &deadline
	}
	if req.Completed != nil {
		updated.Completed = *req.Completed
	}

	if req.TotalLessons != nil {
		total, err := parseNonNegative(*req.TotalLessons, msgTotalLessonsInvalid)
		if err != nil {
			return nil, err
		}
		updated.TotalLessons = total
		if updated.CompletedLessons > total {
			updated.CompletedLessons = total
		}
	}
	if req.CompletedLessons != nil {
		completed, err := parseNonNegative(*req.CompletedLessons, msgCompletedLessonsInvalid)
		if err != nil {
			return nil, err
		}
		updated.CompletedLessons = completed
	}

	return s.saveProgress(ctx, current, &updated)
}

// ────────────────────── AdjustLessons ──────────────────────

func (s *moduleService) AdjustLessons(ctx context.Context, id, callerID string, increment *dto.NumericInput) (*ModuleProgressResult, error) {
	if increment == nil {
		return nil, pkgerrors.Validation("increment is required")
	}
	delta, ok := parseInteger(*increment)
	if !ok {
		return nil, pkgerrors.Validation(msgIncrementInvalid)
	}

	current, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	next := current.CompletedLessons + delta
	if next < 0 {
		return nil, ErrModuleNegativeLesson
	}
	if next > current.TotalLessons {
		return nil, pkgerrors.Validationf("Only %d lessons in this module", current.TotalLessons)
	}

	updated := *current
	updated.CompletedLessons = next
	return s.saveProgress(ctx, current, &updated)
}

// saveProgress 最终校验 → 持久化 → 完成态跃迁时自动签发证书
func (s *moduleService) saveProgress(ctx context.Context, before, after *model.Module) (*ModuleProgressResult, error) {
	// 写入前的最后一道校验
	if after.CompletedLessons > after.TotalLessons {
		return nil, pkgerrors.Validationf("Completed lessons (%d) cannot exceed total lessons (%d)",
			after.CompletedLessons, after.TotalLessons)
	}

	if err := s.repo.Module.Update(ctx, after); err != nil {
		s.logger.Error("更新模块失败", zap.String("id", after.ModuleID), zap.Error(err))
		return nil, err
	}

	result := &ModuleProgressResult{Module: toModuleResponse(after)}

	// 以更新后的总课时为基准：之前未达到、现在达到时触发
	if before.CompletedLessons >= after.TotalLessons || !after.IsComplete() {
		return result, nil
	}
	metrics.IncModuleCompletion()

	cert, err := s.certs.IssueOnCompletion(ctx, after)
	if err != nil {
		s.logger.Warn("自动签发证书失败，模块更新已保存",
			zap.String("module_id", after.ModuleID),
			zap.String("user_id", after.UserID),
			zap.Error(err))
		result.IssueErr = err
		return result, nil
	}
	if cert != nil {
		resp := toCertificateResponse(cert)
		result.CertificateEarned = true
		result.Certificate = &resp
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *moduleService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.getOwned(ctx, id, callerID); err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	removed, err := NewCertificateService(txRepo, s.logger).DeleteAllForModule(ctx, id)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if err := txRepo.Module.Delete(ctx, id); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除模块失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("模块已删除",
		zap.String("id", id),
		zap.Int64("certificates_removed", removed))
	return nil
}

// ── 辅助函数 ──

// getOwned 查询模块并校验归属；不存在或不属于调用方均返回 ErrModuleNotFound
func (s *moduleService) getOwned(ctx context.Context, id, callerID string) (*model.Module, error) {
	module, err := s.repo.Module.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		s.logger.Error("查询模块失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !model.OwnedBy(module.UserID, callerID) {
		return nil, ErrModuleNotFound
	}
	return module, nil
}

func toModuleResponse(m *model.Module) *dto.ModuleResponse {
	resp := &dto.ModuleResponse{
		ID:               m.ModuleID,
		UserID:           m.UserID,
		Title:            m.Title,
		TotalLessons:     m.TotalLessons,
		CompletedLessons: m.CompletedLessons,
		Completed:        m.Completed,
		CreatedAt:        formatTime(m.CreatedAt),
		UpdatedAt:        formatTime(m.UpdatedAt),
	}
	if m.Description != nil {
		resp.Description = *m.Description
	}
	if m.Deadline != nil {
		resp.Deadline = formatDate(*m.Deadline)
	}
	if m.TotalLessons > 0 {
		resp.Progress = m.CompletedLessons * 100 / m.TotalLessons
	}
	return resp
}
