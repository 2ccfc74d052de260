package record

import (
	"strings"
	"time"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
)

// scheduleFields 是放送信息字面量的字段数；第 4 个字段是下一集日期。
const scheduleFields = 4

// DeriveSchedule 推导放送状态。任何解析失败都降级为“放送中、放送日未知”，从不报错。
func DeriveSchedule(d extract.Doc, l Layout) domain.ScheduleState {
	status := d.Find(l.StatusNode).First()
	if status.Length() > 0 && l.CompletedClass != "" && status.HasClass(l.CompletedClass) {
		return domain.CompletedState()
	}
	if l.ScheduleField == nil {
		return domain.AiringState(nil)
	}
	lit, ok := l.ScheduleField.Find(d.Scripts())
	if !ok {
		return domain.AiringState(nil)
	}
	return domain.AiringState(weekdayFromLiteral(lit))
}

// weekdayFromLiteral 解析形如 "id","slug","name","2024-01-05" 的字面量。
func weekdayFromLiteral(lit string) *domain.Weekday {
	parts := strings.Split(lit, ",")
	if len(parts) != scheduleFields {
		return nil
	}
	date := strings.TrimSpace(strings.ReplaceAll(parts[scheduleFields-1], `"`, ""))
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	day := domain.WeekdayOf(t.Weekday())
	return &day
}
