package repository

import (
	"context"

	"gorm.io/gorm"

	"studytrack/backend/internal/model"
)

// CertificateRepository 证书数据访问接口
type CertificateRepository interface {
	Create(ctx context.Context, cert *model.Certificate) error
	GetByID(ctx context.Context, id string) (*model.Certificate, error)
	GetByUserAndModule(ctx context.Context, userID, moduleID string) (*model.Certificate, error)
	// ListByUser 预加载模块，按 completion_date 倒序
	ListByUser(ctx context.Context, userID string) ([]model.Certificate, error)
	Delete(ctx context.Context, id string) error
	DeleteByModule(ctx context.Context, moduleID string) (int64, error)
}

type certificateRepo struct {
	db *gorm.DB
}

// NewCertificateRepo 创建 CertificateRepository 实例
func NewCertificateRepo(db *gorm.DB) CertificateRepository {
	return &certificateRepo{db: db}
}

func (r *certificateRepo) Create(ctx context.Context, cert *model.Certificate) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

func (r *certificateRepo) GetByID(ctx context.Context, id string) (*model.Certificate, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("certificate_id = ?", id).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) GetByUserAndModule(ctx context.Context, userID, moduleID string) (*model.Certificate, error) {
	if !validID(userID) || !validID(moduleID) {
		return nil, gorm.ErrRecordNotFound
	}
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) ListByUser(ctx context.Context, userID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.db.WithContext(ctx).
		Preload("Module").
		Where("user_id = ?", userID).
		Order("completion_date DESC").
		Find(&certs).Error
	return certs, err
}

func (r *certificateRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("certificate_id = ?", id).
		Delete(&model.Certificate{}).Error
}

func (r *certificateRepo) DeleteByModule(ctx context.Context, moduleID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Delete(&model.Certificate{})
	return result.RowsAffected, result.Error
}
