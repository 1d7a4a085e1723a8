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
)

// UserService 用户业务接口
type UserService interface {
	// ListStudents 教师查看学生名单；非教师返回 ErrForbidden
	ListStudents(ctx context.Context, callerID string, req *dto.StudentListRequest) ([]dto.UserResponse, int64, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── ListStudents ──────────────────────

func (s *userService) ListStudents(ctx context.Context, callerID string, req *dto.StudentListRequest) ([]dto.UserResponse, int64, error) {
	caller, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, 0, err
	}
	if caller.ProfileType != model.ProfileEducator {
		return nil, 0, pkgerrors.ErrForbidden
	}

	users, total, err := s.repo.User.ListByProfileType(ctx, model.ProfileStudent,
		req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:          user.UserID,
		Name:        user.Name,
		Email:       user.Email,
		ProfileType: string(user.ProfileType),
		CreatedAt:   formatTime(user.CreatedAt),
	}
	if user.University != nil {
		resp.University = *user.University
	}
	if user.Address != nil {
		resp.Address = *user.Address
	}
	return resp
}
