package entity

import (
	"strings"
	"time"
)

// Schedule types for the periodic admin report.
const (
	ScheduleTypeWeekly   = "weekly"
	ScheduleTypeDaily    = "daily"
	ScheduleTypeDisabled = "disabled"
)

var scheduleWeekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ReportSchedule is a singleton row (id = 1) describing when the admin
// summary email goes out: daily or weekly at Hour:Minute UTC.
type ReportSchedule struct {
	Id           int
	Enabled      bool
	ScheduleType string // "weekly" | "daily" | "disabled"
	DayOfWeek    string // "mon".."sun", weekly schedules only
	Hour         int    // 0-23, UTC
	Minute       int    // 0-59
	Recipients   string // comma separated fallback when no user opted in
	LastSentAt   *time.Time
	UpdatedAt    time.Time
}

// NextRun returns the first trigger strictly after the given instant, in
// UTC. The second return is false when the schedule cannot fire (disabled
// or not enabled).
func (s *ReportSchedule) NextRun(after time.Time) (time.Time, bool) {
	if !s.Enabled || s.ScheduleType == ScheduleTypeDisabled {
		return time.Time{}, false
	}

	after = after.UTC()
	at := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, s.Minute, 0, 0, time.UTC)

	switch s.ScheduleType {
	case ScheduleTypeDaily:
		if !at.After(after) {
			at = at.AddDate(0, 0, 1)
		}
		return at, true
	case ScheduleTypeWeekly:
		day, ok := scheduleWeekdays[strings.ToLower(s.DayOfWeek)]
		if !ok {
			day = time.Monday
		}
		for !at.After(after) || at.Weekday() != day {
			at = at.AddDate(0, 0, 1)
		}
		return at, true
	default:
		return time.Time{}, false
	}
}
