package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db          *gorm.DB
	User        UserRepository
	Module      ModuleRepository
	Certificate CertificateRepository
	Semester    SemesterRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		User:        NewUserRepo(db),
		Module:      NewModuleRepo(db),
		Certificate: NewCertificateRepo(db),
		Semester:    NewSemesterRepo(db),
	}
}

// BeginTx 开启事务；未持有数据库连接（单元测试的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// validID 主键列为 UUID 类型；非法 ID 在 PostgreSQL 上会报类型错误，
// 查询前直接按记录不存在处理
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
