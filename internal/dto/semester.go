package dto

import (
	"bytes"
	"encoding/json"
)

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Number    *NumericInput `json:"number"`
	StartDate string        `json:"start_date"` // "2026-09-01" 或 RFC3339
	EndDate   string        `json:"end_date"`
	Modules   ModuleIDList  `json:"modules"`
}

// UpdateSemesterRequest 更新学期请求（仅更新提供的字段）
type UpdateSemesterRequest struct {
	Number    *NumericInput `json:"number"`
	StartDate *string       `json:"start_date"`
	EndDate   *string       `json:"end_date"`
	Modules   ModuleIDList  `json:"modules"`
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Number    int      `json:"number"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Modules   []string `json:"modules"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ModuleIDList 请求中的模块 ID 列表
// Set 表示字段出现过（含 null）；Invalid 表示值不是数组，由 service 层给出校验信息
type ModuleIDList struct {
	IDs     []string
	Set     bool
	Invalid bool
}

// UnmarshalJSON 只接受数组；null 元素记为空串，非字符串元素保留原文
func (l *ModuleIDList) UnmarshalJSON(b []byte) error {
	l.Set = true
	l.IDs = nil
	var raw []json.RawMessage
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) || json.Unmarshal(b, &raw) != nil {
		l.Invalid = true
		return nil
	}
	l.Invalid = false
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if bytes.Equal(r, []byte("null")) {
			ids = append(ids, "")
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			s = string(r)
		}
		ids = append(ids, s)
	}
	l.IDs = ids
	return nil
}

// MarshalJSON 按普通数组输出
func (l ModuleIDList) MarshalJSON() ([]byte, error) {
	if l.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.IDs)
}

// ModuleIDs 构造已提供的模块 ID 列表（测试与内部调用使用）
func ModuleIDs(ids ...string) ModuleIDList {
	if ids == nil {
		ids = []string{}
	}
	return ModuleIDList{IDs: ids, Set: true}
}
