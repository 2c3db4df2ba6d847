package model

import "time"

type ReportSchedule struct {
	Id           int    `gorm:"primaryKey"`
	Enabled      bool   `gorm:"default:false"`
	ScheduleType string `gorm:"type:varchar(20);not null;default:'weekly'"`
	DayOfWeek    string `gorm:"type:varchar(10);not null;default:'mon'"`
	Hour         int    `gorm:"not null;default:9"`
	Minute       int    `gorm:"not null;default:0"`
	Recipients   string `gorm:"type:text"`
	LastSentAt   *time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (ReportSchedule) TableName() string {
	return "report_schedules"
}
