package unitofwork

import (
	"context"

	"ai-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	VerificationTokenRepository() contract.VerificationTokenRepository
	UserSessionRepository() contract.UserSessionRepository
	ReportScheduleRepository() contract.ReportScheduleRepository
	StatsRepository() contract.StatsRepository
}
