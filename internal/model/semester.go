package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxSemesterModules 单个学期最多包含的模块数
const MaxSemesterModules = 4

// Semester 学期表 — 对应 semesters
// (user_id, number) 唯一；Modules 为有序模块 ID 列表
type Semester struct {
	SemesterID string      `gorm:"type:uuid;primaryKey"                                          json:"semester_id"`
	UserID     string      `gorm:"type:uuid;not null;uniqueIndex:idx_semesters_user_number,priority:1" json:"user_id"`
	Number     int         `gorm:"not null;uniqueIndex:idx_semesters_user_number,priority:2"     json:"number"`
	StartDate  time.Time   `gorm:"type:date;not null"                                            json:"start_date"`
	EndDate    time.Time   `gorm:"type:date;not null"                                            json:"end_date"`
	Modules    StringArray `gorm:"not null"                                                     json:"modules"`
	BaseModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// BeforeCreate 生成主键
func (s *Semester) BeforeCreate(_ *gorm.DB) error {
	if s.SemesterID == "" {
		s.SemesterID = uuid.New().String()
	}
	if s.Modules == nil {
		s.Modules = StringArray{}
	}
	return nil
}
