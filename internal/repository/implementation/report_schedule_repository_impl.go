package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

const reportScheduleId = 1

type ReportScheduleRepositoryImpl struct {
	db *gorm.DB
}

func NewReportScheduleRepository(db *gorm.DB) contract.ReportScheduleRepository {
	return &ReportScheduleRepositoryImpl{db: db}
}

func (r *ReportScheduleRepositoryImpl) Get(ctx context.Context) (*entity.ReportSchedule, error) {
	var m model.ReportSchedule
	err := r.db.WithContext(ctx).Where("id = ?", reportScheduleId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m = model.ReportSchedule{
				Id:           reportScheduleId,
				Enabled:      false,
				ScheduleType: entity.ScheduleTypeWeekly,
				DayOfWeek:    "mon",
				Hour:         9,
				Minute:       0,
			}
			if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	return &entity.ReportSchedule{
		Id:           m.Id,
		Enabled:      m.Enabled,
		ScheduleType: m.ScheduleType,
		DayOfWeek:    m.DayOfWeek,
		Hour:         m.Hour,
		Minute:       m.Minute,
		Recipients:   m.Recipients,
		LastSentAt:   m.LastSentAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (r *ReportScheduleRepositoryImpl) Save(ctx context.Context, schedule *entity.ReportSchedule) error {
	m := model.ReportSchedule{
		Id:           reportScheduleId,
		Enabled:      schedule.Enabled,
		ScheduleType: schedule.ScheduleType,
		DayOfWeek:    schedule.DayOfWeek,
		Hour:         schedule.Hour,
		Minute:       schedule.Minute,
		Recipients:   schedule.Recipients,
		LastSentAt:   schedule.LastSentAt,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *ReportScheduleRepositoryImpl) MarkSent(ctx context.Context, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ReportSchedule{}).
		Where("id = ?", reportScheduleId).
		Update("last_sent_at", at).Error
}
