package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/backend/internal/dto"
	pkgerrors "studytrack/backend/pkg/errors"
)

// ── 通用校验函数 ──
// 每个函数只负责一条规则，由各 service 按顺序组合调用

// requireField 必填字符串字段
func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return pkgerrors.Validationf("%s is required", name)
	}
	return nil
}

// parseInteger 解析整数文本；拒绝小数与非数字
func parseInteger(in dto.NumericInput) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(in)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseNonNegative 解析非负整数，失败时返回给定的校验信息
func parseNonNegative(in dto.NumericInput, msg string) (int, error) {
	n, ok := parseInteger(in)
	if !ok || n < 0 {
		return 0, pkgerrors.Validation(msg)
	}
	return n, nil
}

// parsePositive 解析正整数
func parsePositive(in dto.NumericInput, msg string) (int, error) {
	n, ok := parseInteger(in)
	if !ok || n <= 0 {
		return 0, pkgerrors.Validation(msg)
	}
	return n, nil
}

// dateLayouts 接受的日期格式
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate 解析日期（YYYY-MM-DD 或 RFC3339）
func parseDate(name, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pkgerrors.Validationf("%s must be a valid date", name)
}

// normalizeModuleIDs 校验模块 ID 列表并规范化为小写标准 UUID 字符串
// 顺序：数量上限 → 空值 → 格式 → 重复
func normalizeModuleIDs(ids []string, max int) ([]string, error) {
	if len(ids) > max {
		return nil, pkgerrors.Validationf("A semester can include at most %d modules.", max)
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		if strings.TrimSpace(raw) == "" {
			return nil, pkgerrors.Validation("modules cannot contain empty values")
		}
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Validation(fmt.Sprintf("Invalid module id: %s", raw))
		}
		canonical := id.String()
		if _, dup := seen[canonical]; dup {
			return nil, pkgerrors.Validation("modules must not contain duplicates")
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

// formatTime 统一时间输出格式
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// formatDate 日期输出格式
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
