package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
	pkgerrors "studytrack/backend/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound        = pkgerrors.NotFound("Semester not found.")
	ErrSemesterDateOrder       = pkgerrors.Validation("Semester startDate must be before endDate.")
	ErrSemesterNumberTaken     = pkgerrors.Validation("A semester with this number already exists.")
	ErrSemesterModulesNotOwned = pkgerrors.Validation("One or more modules do not exist or belong to the user")
)

const (
	msgSemesterNumberInvalid = "number must be a positive whole integer"
	msgModulesNotArray       = "modules must be an array of module IDs"
)

// SemesterService 学期业务接口
// 所有校验在写入前完成，任一失败则整体拒绝
type SemesterService interface {
	Create(ctx context.Context, userID string, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.SemesterResponse, error)
	List(ctx context.Context, userID string) ([]dto.SemesterResponse, error)
	Update(ctx context.Context, id, callerID string, req *dto.UpdateSemesterRequest) (*dto.SemesterResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, userID string, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error) {
	if err := requireField("userId", userID); err != nil {
		return nil, err
	}
	if req.Number == nil || string(*req.Number) == "" {
		return nil, pkgerrors.Validation("number is required")
	}
	if err := requireField("startDate", req.StartDate); err != nil {
		return nil, err
	}
	if err := requireField("endDate", req.EndDate); err != nil {
		return nil, err
	}

	number, err := parsePositive(*req.Number, msgSemesterNumberInvalid)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := checkDateOrder(start, end); err != nil {
		return nil, err
	}

	modules, err := s.validateModules(ctx, userID, req.Modules)
	if err != nil {
		return nil, err
	}

	semester := &model.Semester{
		UserID:    userID,
		Number:    number,
		StartDate: start,
		EndDate:   end,
		Modules:   modules,
	}

	if err := s.repo.Semester.Create(ctx, semester); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSemesterNumberTaken
		}
		s.logger.Error("创建学期失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(semester), nil
}

// ────────────────────── Read ──────────────────────

func (s *semesterService) GetByID(ctx context.Context, id, callerID string) (*dto.SemesterResponse, error) {
	semester, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return toSemesterResponse(semester), nil
}

func (s *semesterService) List(ctx context.Context, userID string) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("列出学期失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, *toSemesterResponse(&semesters[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *semesterService) Update(ctx context.Context, id, callerID string, req *dto.UpdateSemesterRequest) (*dto.SemesterResponse, error) {
	current, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	updated := *current

	if req.Number != nil {
		number, err := parsePositive(*req.Number, msgSemesterNumberInvalid)
		if err != nil {
			return nil, err
		}
		updated.Number = number
	}
	if req.StartDate != nil {
		start, err := parseDate("startDate", *req.StartDate)
		if err != nil {
			return nil, err
		}
		updated.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDate("endDate", *req.EndDate)
		if err != nil {
			return nil, err
		}
		updated.EndDate = end
	}
	if err := checkDateOrder(updated.StartDate, updated.EndDate); err != nil {
		return nil, err
	}

	// 未出现的字段保持原值；null 或非数组按校验失败处理
	if req.Modules.Set {
		modules, err := s.validateModules(ctx, current.UserID, req.Modules)
		if err != nil {
			return nil, err
		}
		updated.Modules = modules
	}

	if err := s.repo.Semester.Update(ctx, &updated); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSemesterNumberTaken
		}
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(&updated), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除学期，模块保留
func (s *semesterService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.getOwned(ctx, id, callerID); err != nil {
		return err
	}

	if err := s.repo.Semester.Delete(ctx, id); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 辅助函数 ──

// getOwned 不存在返回 ErrSemesterNotFound，他人记录返回 ErrForbidden
func (s *semesterService) getOwned(ctx context.Context, id, callerID string) (*model.Semester, error) {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !model.OwnedBy(semester.UserID, callerID) {
		return nil, pkgerrors.ErrForbidden
	}
	return semester, nil
}

// validateModules 校验模块列表并确认全部归属 userID（单次计数查询）
func (s *semesterService) validateModules(ctx context.Context, userID string, list dto.ModuleIDList) (model.StringArray, error) {
	if list.Invalid {
		return nil, pkgerrors.Validation(msgModulesNotArray)
	}
	normalized, err := normalizeModuleIDs(list.IDs, model.MaxSemesterModules)
	if err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return model.StringArray{}, nil
	}

	owned, err := s.repo.Module.CountOwned(ctx, userID, normalized)
	if err != nil {
		s.logger.Error("校验学期模块归属失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if owned != int64(len(normalized)) {
		return nil, ErrSemesterModulesNotOwned
	}
	return model.StringArray(normalized), nil
}

// checkDateOrder 允许开始与结束为同一天
func checkDateOrder(start, end time.Time) error {
	if start.After(end) {
		return ErrSemesterDateOrder
	}
	return nil
}

func toSemesterResponse(s *model.Semester) *dto.SemesterResponse {
	modules := make([]string, len(s.Modules))
	copy(modules, s.Modules)
	return &dto.SemesterResponse{
		ID:        s.SemesterID,
		UserID:    s.UserID,
		Number:    s.Number,
		StartDate: formatDate(s.StartDate),
		EndDate:   formatDate(s.EndDate),
		Modules:   modules,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}
