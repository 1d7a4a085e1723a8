package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"studytrack/backend/internal/model"
)

// ── 截止日期日历导出 ──────────────────────────────────────────
//
// 每个设置了 deadline 的模块生成一个全天 VEVENT：
//   - UID 使用模块 ID，订阅端可据此去重更新
//   - SUMMARY 为模块标题，DESCRIPTION 附带当前进度
//   - 未设置 deadline 的模块跳过
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//StudyTrack//Module Deadlines//EN"

func (s *moduleService) ExportDeadlines(ctx context.Context, userID string) (string, error) {
	modules, err := s.repo.Module.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询模块列表失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}
	return buildDeadlineCalendar(modules, time.Now()), nil
}

// buildDeadlineCalendar 构造 iCalendar 文本
func buildDeadlineCalendar(modules []model.Module, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("StudyTrack deadlines")

	for i := range modules {
		m := &modules[i]
		if m.Deadline == nil {
			continue
		}
		day := m.Deadline.UTC()

		event := cal.AddEvent(m.ModuleID + "@studytrack")
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(m.Title)
		event.SetDescription(deadlineDescription(m))
	}

	return cal.Serialize()
}

func deadlineDescription(m *model.Module) string {
	status := "in progress"
	if m.IsComplete() {
		status = "completed"
	}
	return fmt.Sprintf("%d/%d lessons (%s)", m.CompletedLessons, m.TotalLessons, status)
}
