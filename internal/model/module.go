package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module 学习模块表 — 对应 modules
// 不变量：CompletedLessons <= TotalLessons
type Module struct {
	ModuleID         string     `gorm:"type:uuid;primaryKey"             json:"module_id"`
	UserID           string     `gorm:"type:uuid;not null;index"         json:"user_id"`
	Title            string     `gorm:"type:varchar(255);not null"       json:"title"`
	Description      *string    `gorm:"type:text"                        json:"description,omitempty"`
	Deadline         *time.Time `gorm:"type:date"                        json:"deadline,omitempty"`
	TotalLessons     int        `gorm:"not null;default:0"               json:"total_lessons"`
	CompletedLessons int        `gorm:"not null;default:0"               json:"completed_lessons"`
	Completed        bool       `gorm:"not null;default:false"           json:"completed"`
	BaseModel
}

// TableName 指定表名
func (Module) TableName() string { return "modules" }

// BeforeCreate 生成主键
func (m *Module) BeforeCreate(_ *gorm.DB) error {
	if m.ModuleID == "" {
		m.ModuleID = uuid.New().String()
	}
	return nil
}

// LessonsComplete 全部课时已完成（至少一节课）
func LessonsComplete(completed, total int) bool {
	return total > 0 && completed == total
}

// IsComplete 模块是否处于 COMPLETE 状态
func (m *Module) IsComplete() bool {
	return LessonsComplete(m.CompletedLessons, m.TotalLessons)
}
