package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate 结业证书表 — 对应 certificates
// (user_id, module_id) 唯一；ModuleName/UserName/TotalLessons 为签发时快照
type Certificate struct {
	CertificateID  string    `gorm:"type:uuid;primaryKey"                                   json:"certificate_id"`
	UserID         string    `gorm:"type:uuid;not null;uniqueIndex:idx_certificates_user_module,priority:1" json:"user_id"`
	ModuleID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_certificates_user_module,priority:2;index" json:"module_id"`
	ModuleName     string    `gorm:"type:varchar(255);not null"                             json:"module_name"`
	UserName       string    `gorm:"type:varchar(100);not null"                             json:"user_name"`
	TotalLessons   int       `gorm:"not null"                                               json:"total_lessons"`
	CompletionDate time.Time `gorm:"not null"                                               json:"completion_date"`
	BaseModel

	// 关联（列表查询时预加载模块标题与描述）
	Module *Module `gorm:"foreignKey:ModuleID;references:ModuleID" json:"module,omitempty"`
}

// TableName 指定表名
func (Certificate) TableName() string { return "certificates" }

// BeforeCreate 生成主键，CompletionDate 默认为签发时间
func (c *Certificate) BeforeCreate(_ *gorm.DB) error {
	if c.CertificateID == "" {
		c.CertificateID = uuid.New().String()
	}
	if c.CompletionDate.IsZero() {
		c.CompletionDate = time.Now()
	}
	return nil
}
