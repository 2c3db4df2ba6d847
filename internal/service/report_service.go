// FILE: internal/service/report_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const ReportRequestedTopic = "report.requested"

type IReportService interface {
	// SendNow publishes a report request; the consumer renders and emails it.
	SendNow(ctx context.Context, recipients []string) error
	GetSchedule(ctx context.Context) (*dto.ReportScheduleResponse, error)
	UpdateSchedule(ctx context.Context, req *dto.UpdateReportScheduleRequest) (*dto.ReportScheduleResponse, error)
	// Subscribers lists the users opted in to the scheduled report.
	Subscribers(ctx context.Context) (*dto.ReportSubscribersResponse, error)
	// RunScheduler blocks until ctx is done, publishing report requests
	// whenever the stored schedule trigger comes due.
	RunScheduler(ctx context.Context)
}

type reportService struct {
	uowFactory unitofwork.RepositoryFactory
	pubSub     *gochannel.GoChannel
	log        logger.ILogger
}

func NewReportService(uowFactory unitofwork.RepositoryFactory, pubSub *gochannel.GoChannel, log logger.ILogger) IReportService {
	return &reportService{
		uowFactory: uowFactory,
		pubSub:     pubSub,
		log:        log,
	}
}

func (s *reportService) publishRequest(recipients []string, source string) error {
	payload, err := json.Marshal(dto.ReportRequestedMessage{
		Recipients:  recipients,
		RequestedAt: time.Now().UTC(),
		Source:      source,
	})
	if err != nil {
		return err
	}
	return s.pubSub.Publish(ReportRequestedTopic, message.NewMessage(watermill.NewUUID(), payload))
}

func (s *reportService) SendNow(ctx context.Context, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if err := s.publishRequest(recipients, "manual"); err != nil {
		return err
	}
	s.log.Info("report", "Report requested", map[string]interface{}{
		"recipients": len(recipients),
	})
	return nil
}

func (s *reportService) GetSchedule(ctx context.Context) (*dto.ReportScheduleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	schedule, err := uow.ReportScheduleRepository().Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.scheduleToDTO(ctx, uow, schedule)
}

func (s *reportService) UpdateSchedule(ctx context.Context, req *dto.UpdateReportScheduleRequest) (*dto.ReportScheduleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	schedule, err := uow.ReportScheduleRepository().Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.Enabled != nil {
		schedule.Enabled = *req.Enabled
	}
	if req.ScheduleType != nil {
		schedule.ScheduleType = *req.ScheduleType
	}
	if req.DayOfWeek != nil {
		schedule.DayOfWeek = *req.DayOfWeek
	}
	if req.Hour != nil {
		schedule.Hour = *req.Hour
	}
	if req.Minute != nil {
		schedule.Minute = *req.Minute
	}
	if req.Recipients != nil {
		schedule.Recipients = strings.Join(req.Recipients, ",")
	}

	if err := uow.ReportScheduleRepository().Save(ctx, schedule); err != nil {
		return nil, err
	}
	return s.scheduleToDTO(ctx, uow, schedule)
}

func (s *reportService) Subscribers(ctx context.Context) (*dto.ReportSubscribersResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx,
		specification.ReportSubscribersOnly{},
		specification.OrderBy{Field: "email"},
	)
	if err != nil {
		return nil, err
	}

	subscribers := make([]dto.ReportSubscriberResponse, 0, len(users))
	for _, user := range users {
		subscribers = append(subscribers, dto.ReportSubscriberResponse{
			Id:          user.Id,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        string(user.Role),
		})
	}
	return &dto.ReportSubscribersResponse{
		Subscribers: subscribers,
		Total:       len(subscribers),
	}, nil
}

func (s *reportService) RunScheduler(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *reportService) tick(ctx context.Context) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	schedule, err := uow.ReportScheduleRepository().Get(ctx)
	if err != nil {
		s.log.Error("report", "Scheduler failed to load schedule", map[string]interface{}{"error": err.Error()})
		return
	}

	// The next trigger is computed from the later of the last config change
	// and the last send, so an edit re-arms the schedule and a send doesn't
	// fire twice in the same slot.
	ref := schedule.UpdatedAt
	if schedule.LastSentAt != nil && schedule.LastSentAt.After(ref) {
		ref = *schedule.LastSentAt
	}
	due, ok := schedule.NextRun(ref)
	if !ok || time.Now().UTC().Before(due) {
		return
	}

	recipients, err := resolveReportRecipients(ctx, uow, schedule)
	if err != nil {
		s.log.Error("report", "Scheduler failed to resolve recipients", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(recipients) == 0 {
		s.log.Warn("report", "Schedule fired with no subscribers or fallback recipients", nil)
		// Stamp anyway so the warning doesn't repeat every minute.
		if err := uow.ReportScheduleRepository().MarkSent(ctx, time.Now().UTC()); err != nil {
			s.log.Error("report", "Scheduler failed to stamp schedule", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	if err := s.publishRequest(recipients, "schedule"); err != nil {
		s.log.Error("report", "Scheduler failed to publish report request", map[string]interface{}{"error": err.Error()})
		return
	}

	// Stamp immediately so a slow consumer doesn't double-fire next tick.
	if err := uow.ReportScheduleRepository().MarkSent(ctx, time.Now().UTC()); err != nil {
		s.log.Error("report", "Scheduler failed to stamp schedule", map[string]interface{}{"error": err.Error()})
	}

	s.log.Info("report", "Scheduled report dispatched", map[string]interface{}{
		"recipients": len(recipients),
	})
}

// resolveReportRecipients prefers users who opted in; when nobody has, it
// falls back to the addresses stored on the schedule.
func resolveReportRecipients(ctx context.Context, uow unitofwork.UnitOfWork, schedule *entity.ReportSchedule) ([]string, error) {
	subscribers, err := uow.UserRepository().FindAll(ctx, specification.ReportSubscribersOnly{})
	if err != nil {
		return nil, err
	}

	var recipients []string
	for _, user := range subscribers {
		if user.Email != nil && *user.Email != "" {
			recipients = append(recipients, *user.Email)
		}
	}
	if len(recipients) > 0 {
		return recipients, nil
	}
	return splitRecipients(schedule.Recipients), nil
}

func splitRecipients(raw string) []string {
	var recipients []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}

func (s *reportService) scheduleToDTO(ctx context.Context, uow unitofwork.UnitOfWork, schedule *entity.ReportSchedule) (*dto.ReportScheduleResponse, error) {
	subscribed, err := uow.UserRepository().Count(ctx, specification.ReportSubscribersOnly{})
	if err != nil {
		return nil, err
	}

	var nextRun *time.Time
	if due, ok := schedule.NextRun(time.Now().UTC()); ok {
		nextRun = &due
	}

	return &dto.ReportScheduleResponse{
		Enabled:              schedule.Enabled,
		ScheduleType:         schedule.ScheduleType,
		DayOfWeek:            schedule.DayOfWeek,
		Hour:                 schedule.Hour,
		Minute:               schedule.Minute,
		Recipients:           splitRecipients(schedule.Recipients),
		SubscribedUsersCount: subscribed,
		NextRun:              nextRun,
		LastSentAt:           schedule.LastSentAt,
		UpdatedAt:            schedule.UpdatedAt,
	}, nil
}
