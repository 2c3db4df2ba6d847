// FILE: internal/service/admin_service.go
package service

import (
	"context"
	"errors"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSelfRoleChange    = errors.New("Cannot change your own role")
	ErrSelfBlock         = errors.New("Cannot block yourself")
	ErrInvalidUserRole   = errors.New("invalid role")
	ErrNegativeUserLimit = errors.New("message limit must not be negative")
)

type IAdminService interface {
	ListUsers(ctx context.Context, req *dto.AdminUserListRequest) (*dto.AdminUserListResponse, error)
	GetUser(ctx context.Context, userId uuid.UUID) (*dto.AdminUserDetailResponse, error)
	UpdateRole(ctx context.Context, actorId, userId uuid.UUID, role string) error
	SetBlocked(ctx context.Context, actorId, userId uuid.UUID, blocked bool) error
	SetMessageLimit(ctx context.Context, userId uuid.UUID, limit *int) error
	SetReportSubscription(ctx context.Context, userId uuid.UUID, subscribed bool) error
	DeleteUser(ctx context.Context, actorId, userId uuid.UUID) error
	UserMessages(ctx context.Context, userId uuid.UUID, req *dto.AdminUserMessagesRequest) (*dto.AdminUserMessagesResponse, error)

	StatsSummary(ctx context.Context, days int) (*dto.StatsSummaryResponse, error)
	DailyActivity(ctx context.Context, days int) ([]dto.DailyActivityResponse, error)

	GetLogs(ctx context.Context, req *dto.LogListRequest) ([]dto.LogListResponse, error)
	GetLogById(ctx context.Context, id string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	uowFactory     unitofwork.RepositoryFactory
	log            logger.ILogger
	eventPublisher *pktNats.Publisher
}

func NewAdminService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, eventPublisher *pktNats.Publisher) IAdminService {
	return &adminService{
		uowFactory:     uowFactory,
		log:            log,
		eventPublisher: eventPublisher,
	}
}

func normalizePaging(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func (s *adminService) userFilterSpecs(req *dto.AdminUserListRequest) []specification.Specification {
	var specs []specification.Specification
	if req.Search != "" {
		specs = append(specs, specification.SearchUsers{Query: req.Search})
	}
	if req.Role != "" {
		specs = append(specs, specification.RoleIs{Role: req.Role})
	}
	switch req.Blocked {
	case "true":
		specs = append(specs, specification.BlockedIs{Blocked: true})
	case "false":
		specs = append(specs, specification.BlockedIs{Blocked: false})
	}
	return specs
}

func (s *adminService) ListUsers(ctx context.Context, req *dto.AdminUserListRequest) (*dto.AdminUserListResponse, error) {
	page, limit := normalizePaging(req.Page, req.Limit, 20, 100)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	filterSpecs := s.userFilterSpecs(req)

	total, err := uow.UserRepository().Count(ctx, filterSpecs...)
	if err != nil {
		return nil, err
	}

	listSpecs := append(filterSpecs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	users, err := uow.UserRepository().FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, err
	}

	res := &dto.AdminUserListResponse{
		Users: make([]dto.AdminUserListItem, len(users)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	for i, user := range users {
		res.Users[i] = userToAdminItem(user)
	}
	return res, nil
}

func (s *adminService) GetUser(ctx context.Context, userId uuid.UUID) (*dto.AdminUserDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	messageCount, err := uow.ChatMessageRepository().Count(ctx, specification.ByAuthUserID{UserID: userId})
	if err != nil {
		return nil, err
	}
	sessionCount, err := uow.ChatSessionRepository().Count(ctx, specification.OwnedByIdentity{Identity: userId.String()})
	if err != nil {
		return nil, err
	}

	return &dto.AdminUserDetailResponse{
		AdminUserListItem: userToAdminItem(user),
		ContextWindowSize: user.ContextWindowSize,
		MessageCount:      messageCount,
		SessionCount:      sessionCount,
	}, nil
}

func (s *adminService) UpdateRole(ctx context.Context, actorId, userId uuid.UUID, role string) error {
	if actorId == userId {
		return ErrSelfRoleChange
	}

	newRole := entity.UserRole(role)
	switch newRole {
	case entity.UserRoleAnonymous, entity.UserRoleUser, entity.UserRoleUnlimited, entity.UserRoleAdmin:
	default:
		return ErrInvalidUserRole
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := uow.UserRepository().UpdateRole(ctx, userId, newRole); err != nil {
		return err
	}

	s.log.Info("admin", "Updated user role", map[string]interface{}{
		"actor_id": actorId.String(), "user_id": userId.String(), "role": role,
	})
	return nil
}

func (s *adminService) SetBlocked(ctx context.Context, actorId, userId uuid.UUID, blocked bool) error {
	if actorId == userId && blocked {
		return ErrSelfBlock
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := uow.UserRepository().UpdateBlocked(ctx, userId, blocked); err != nil {
		return err
	}

	if blocked {
		// A blocked user's refresh tokens stop working immediately.
		if _, err := uow.UserSessionRepository().DeleteAllForUser(ctx, userId); err != nil {
			s.log.Warn("admin", "Failed to revoke sessions for blocked user", map[string]interface{}{
				"user_id": userId.String(), "error": err.Error(),
			})
		}
	}

	s.log.Info("admin", "Updated user blocked flag", map[string]interface{}{
		"actor_id": actorId.String(), "user_id": userId.String(), "blocked": blocked,
	})
	return nil
}

func (s *adminService) SetMessageLimit(ctx context.Context, userId uuid.UUID, limit *int) error {
	if limit != nil && *limit < 0 {
		return ErrNegativeUserLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return uow.UserRepository().UpdateMessageLimit(ctx, userId, limit)
}

func (s *adminService) SetReportSubscription(ctx context.Context, userId uuid.UUID, subscribed bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return uow.UserRepository().UpdateReceiveReports(ctx, userId, subscribed)
}

func (s *adminService) DeleteUser(ctx context.Context, actorId, userId uuid.UUID) error {
	if actorId == userId {
		return errors.New("Cannot delete yourself")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Full cascade: messages attributed to the user, their sessions with
	// those sessions' messages, tokens and auth sessions.
	if err := uow.ChatMessageRepository().DeleteAllByAuthUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().DeleteAllByIdentity(ctx, userId.String()); err != nil {
		return err
	}
	if err := uow.VerificationTokenRepository().DeleteAllForUser(ctx, userId); err != nil {
		return err
	}
	if _, err := uow.UserSessionRepository().DeleteAllForUser(ctx, userId); err != nil {
		return err
	}
	if err := uow.UserRepository().Delete(ctx, userId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type:       "user.deleted",
			Data:       map[string]interface{}{"user_id": userId, "actor_id": actorId},
			OccurredAt: time.Now().UTC(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.log.Warn("admin", "Failed to publish user.deleted event", map[string]interface{}{"error": err.Error()})
		}
	}

	s.log.Info("admin", "Deleted user", map[string]interface{}{
		"actor_id": actorId.String(), "user_id": userId.String(),
	})
	return nil
}

func (s *adminService) UserMessages(ctx context.Context, userId uuid.UUID, req *dto.AdminUserMessagesRequest) (*dto.AdminUserMessagesResponse, error) {
	page, limit := normalizePaging(req.Page, req.Limit, 50, 200)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	total, err := uow.ChatMessageRepository().Count(ctx, specification.ByAuthUserID{UserID: userId})
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByAuthUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	return &dto.AdminUserMessagesResponse{
		Messages: messagesToDTOs(messages),
		Page:     page,
		Limit:    limit,
		Total:    total,
	}, nil
}

// --- stats ---

func sinceFromDays(days int) *time.Time {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return &cutoff
}

func (s *adminService) StatsSummary(ctx context.Context, days int) (*dto.StatsSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stats := uow.StatsRepository()
	since := sinceFromDays(days)

	userCounts, err := stats.UserCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	byRole, err := stats.UsersByRole(ctx, since)
	if err != nil {
		return nil, err
	}
	messageStats, err := stats.MessageStats(ctx, since)
	if err != nil {
		return nil, err
	}
	sessionStats, err := stats.SessionStats(ctx, since)
	if err != nil {
		return nil, err
	}
	topUsers, err := stats.TopActiveUsers(ctx, 10, since)
	if err != nil {
		return nil, err
	}
	recentUsers, err := stats.RecentUsers(ctx, 10, since)
	if err != nil {
		return nil, err
	}

	res := &dto.StatsSummaryResponse{PeriodDays: days}
	res.Users.Registered = userCounts.RegisteredUsers
	res.Users.UniqueSessionOwners = userCounts.UniqueSessionOwners
	res.Users.TotalChatSessions = userCounts.TotalChatSessions

	for _, rc := range byRole {
		res.UsersByRole = append(res.UsersByRole, dto.RoleCountResponse{Role: rc.Role, Count: rc.Count})
	}

	res.Messages.Total = messageStats.TotalMessages
	res.Messages.UserMessages = messageStats.UserMessages
	res.Messages.AiMessages = messageStats.AssistantMessages
	res.Messages.Today = messageStats.MessagesToday
	res.Messages.AvgPerSession = messageStats.AvgPerSession

	res.Sessions.Total = sessionStats.TotalSessions
	res.Sessions.ActiveToday = sessionStats.ActiveToday
	res.Sessions.UniqueOwners = sessionStats.UniqueOwners

	for _, tu := range topUsers {
		res.TopUsers = append(res.TopUsers, dto.TopUserResponse{
			Identifier:   tu.Identifier,
			DisplayName:  tu.DisplayName,
			MessageCount: tu.MessageCount,
			UserType:     tu.UserType,
		})
	}
	for _, ru := range recentUsers {
		res.RecentUsers = append(res.RecentUsers, dto.RecentUserResponse{
			Id:          ru.Id,
			Email:       ru.Email,
			DisplayName: ru.DisplayName,
			Role:        ru.Role,
			Provider:    ru.Provider,
			CreatedAt:   ru.CreatedAt,
		})
	}

	return res, nil
}

func (s *adminService) DailyActivity(ctx context.Context, days int) ([]dto.DailyActivityResponse, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	activity, err := uow.StatsRepository().DailyActivity(ctx, days)
	if err != nil {
		return nil, err
	}

	res := make([]dto.DailyActivityResponse, len(activity))
	for i, day := range activity {
		res[i] = dto.DailyActivityResponse{
			Day:          day.Day,
			MessageCount: day.MessageCount,
			ActiveUsers:  day.ActiveUsers,
		}
	}
	return res, nil
}

// --- system logs ---

func (s *adminService) GetLogs(ctx context.Context, req *dto.LogListRequest) ([]dto.LogListResponse, error) {
	page, limit := normalizePaging(req.Page, req.Limit, 50, 500)

	entries, err := s.log.GetLogs(req.Level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]dto.LogListResponse, len(entries))
	for i, entry := range entries {
		res[i] = dto.LogListResponse{
			Id:        entry.Id,
			Level:     entry.Level,
			Module:    entry.Module,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		}
	}
	return res, nil
}

func (s *adminService) GetLogById(ctx context.Context, id string) (*dto.LogDetailResponse, error) {
	entry, err := s.log.GetLogById(id)
	if err != nil {
		return nil, err
	}
	return &dto.LogDetailResponse{
		LogListResponse: dto.LogListResponse{
			Id:        entry.Id,
			Level:     entry.Level,
			Module:    entry.Module,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		},
		Details: entry.Details,
	}, nil
}

func userToAdminItem(user *entity.User) dto.AdminUserListItem {
	return dto.AdminUserListItem{
		Id:              user.Id,
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		Role:            string(user.Role),
		Provider:        user.Provider,
		IsBlocked:       user.IsBlocked,
		IsEmailVerified: user.IsEmailVerified,
		MessageLimit:    user.EffectiveMessageLimit(),
		CreatedAt:       user.CreatedAt,
	}
}
