package contract

import (
	"context"
	"time"

	"ai-chat-be/internal/entity"
)

type ReportScheduleRepository interface {
	// Get returns the singleton schedule row, creating a disabled default
	// when none exists yet.
	Get(ctx context.Context) (*entity.ReportSchedule, error)
	Save(ctx context.Context, schedule *entity.ReportSchedule) error
	MarkSent(ctx context.Context, at time.Time) error
}
