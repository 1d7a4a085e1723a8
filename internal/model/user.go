package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileType 用户身份类型
type ProfileType string

const (
	ProfileStudent  ProfileType = "student"
	ProfileEducator ProfileType = "educator"
)

// Valid 是否为已知身份类型
func (p ProfileType) Valid() bool {
	return p == ProfileStudent || p == ProfileEducator
}

// User 用户表 — 对应 users
type User struct {
	UserID       string      `gorm:"type:uuid;primaryKey"                          json:"user_id"`
	Name         string      `gorm:"type:varchar(100);not null"                    json:"name"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null"                    json:"-"`
	University   *string     `gorm:"type:varchar(255)"                             json:"university,omitempty"`
	Address      *string     `gorm:"type:varchar(255)"                             json:"address,omitempty"`
	ProfileType  ProfileType `gorm:"type:varchar(20);not null;default:'student';index" json:"profile_type"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	if u.ProfileType == "" {
		u.ProfileType = ProfileStudent
	}
	return nil
}
