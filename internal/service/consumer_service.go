// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/mailer"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains report.requested messages: it renders the current
// stats summary into an email and sends it to each recipient.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	adminService   IAdminService
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	adminService IAdminService,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		adminService:   adminService,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ReportRequestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "Failed to unmarshal report request", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages are not retriable
		return
	}

	recipients := payload.Recipients
	if len(recipients) == 0 {
		uow := cs.uowFactory.NewUnitOfWork(ctx)
		schedule, err := uow.ReportScheduleRepository().Get(ctx)
		if err != nil {
			cs.log.Error("consumer", "Failed to load schedule recipients", map[string]interface{}{"error": err.Error()})
			msg.Nack()
			return
		}
		recipients, err = resolveReportRecipients(ctx, uow, schedule)
		if err != nil {
			cs.log.Error("consumer", "Failed to resolve report recipients", map[string]interface{}{"error": err.Error()})
			msg.Nack()
			return
		}
	}
	if len(recipients) == 0 {
		cs.log.Warn("consumer", "Report request with no recipients", nil)
		msg.Ack()
		return
	}

	subject, body, err := cs.renderReport(ctx)
	if err != nil {
		cs.log.Error("consumer", "Failed to render report", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	failed := 0
	for _, recipient := range recipients {
		if err := cs.emailService.SendReportEmail(recipient, subject, body); err != nil {
			failed++
			cs.log.Error("consumer", "Failed to send report", map[string]interface{}{
				"recipient": recipient, "error": err.Error(),
			})
		}
	}
	if failed == len(recipients) {
		msg.Nack()
		return
	}

	if payload.Source == "manual" {
		uow := cs.uowFactory.NewUnitOfWork(ctx)
		if err := uow.ReportScheduleRepository().MarkSent(ctx, time.Now().UTC()); err != nil {
			cs.log.Warn("consumer", "Failed to stamp schedule after manual send", map[string]interface{}{"error": err.Error()})
		}
	}

	if cs.eventPublisher != nil {
		event := events.BaseEvent{
			Type:       "report.sent",
			Data:       map[string]interface{}{"recipients": len(recipients), "source": payload.Source},
			OccurredAt: time.Now().UTC(),
		}
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			cs.log.Warn("consumer", "Failed to publish report.sent event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.log.Info("consumer", "Report sent", map[string]interface{}{
		"recipients": len(recipients), "failed": failed, "source": payload.Source,
	})
	msg.Ack()
}

func (cs *consumerService) renderReport(ctx context.Context) (string, string, error) {
	stats, err := cs.adminService.StatsSummary(ctx, 0)
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	subject := fmt.Sprintf("Chat Activity Report %s", now.Format("2006-01-02"))

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	fmt.Fprintf(&b, "<h2>Chat Activity Report</h2><p>Generated %s</p>", now.Format(time.RFC1123))

	fmt.Fprintf(&b, "<h3>Users</h3><ul>")
	fmt.Fprintf(&b, "<li>Registered users: %d</li>", stats.Users.Registered)
	fmt.Fprintf(&b, "<li>Unique session owners: %d</li>", stats.Users.UniqueSessionOwners)
	fmt.Fprintf(&b, "<li>Chat sessions: %d</li>", stats.Users.TotalChatSessions)
	b.WriteString("</ul>")

	fmt.Fprintf(&b, "<h3>Messages</h3><ul>")
	fmt.Fprintf(&b, "<li>Total: %d (user %d / assistant %d)</li>",
		stats.Messages.Total, stats.Messages.UserMessages, stats.Messages.AiMessages)
	fmt.Fprintf(&b, "<li>Today: %d</li>", stats.Messages.Today)
	fmt.Fprintf(&b, "<li>Average per session: %.1f</li>", stats.Messages.AvgPerSession)
	b.WriteString("</ul>")

	if len(stats.TopUsers) > 0 {
		b.WriteString("<h3>Top users</h3><ol>")
		for _, tu := range stats.TopUsers {
			fmt.Fprintf(&b, "<li>%s: %d messages</li>", tu.Identifier, tu.MessageCount)
		}
		b.WriteString("</ol>")
	}

	b.WriteString("</div>")
	return subject, b.String(), nil
}
