package domain

import "time"

// Weekday 是放送日（周一到周日）。
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "unknown"
	}
	return weekdayNames[d]
}

// WeekdayOf 把 time.Weekday 映射为 Weekday。
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d)
}

// ScheduleState 描述放送状态。
//
// 不变量：Completed=true 时 Day 必为 nil；Airing 时 Day 可为 nil（无法解析放送日）。
type ScheduleState struct {
	Completed bool
	Day       *Weekday
}

func CompletedState() ScheduleState { return ScheduleState{Completed: true} }

// AiringState 构造放送中状态；day 为 nil 表示放送日未知。
func AiringState(day *Weekday) ScheduleState { return ScheduleState{Day: day} }

func (s ScheduleState) Airing() bool { return !s.Completed }

func (s ScheduleState) String() string {
	if s.Completed {
		return "completed"
	}
	if s.Day == nil {
		return "airing"
	}
	return "airing(" + s.Day.String() + ")"
}
