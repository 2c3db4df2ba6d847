// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"errors"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("chat session not found")

const sessionTitleMaxLen = 50

type IChatService interface {
	GetOrCreateDefaultSession(ctx context.Context, identity string) (*entity.ChatSession, error)
	GetOwnedSession(ctx context.Context, identity string, sessionId uuid.UUID) (*entity.ChatSession, error)

	ListSessions(ctx context.Context, identity string) ([]dto.ChatSessionResponse, error)
	CreateSession(ctx context.Context, identity, title string) (*dto.ChatSessionResponse, error)
	GetSessionDetail(ctx context.Context, identity string, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	DeleteSession(ctx context.Context, identity string, sessionId uuid.UUID) error
	History(ctx context.Context, identity string, limit int) (*dto.ChatHistoryResponse, error)

	// RecentMessages returns the newest n messages in chronological order,
	// for building the AI context window.
	RecentMessages(ctx context.Context, sessionId uuid.UUID, n int) ([]*entity.Message, error)

	PersistUserMessage(ctx context.Context, session *entity.ChatSession, identity string, authUserId *uuid.UUID, content string) (*entity.Message, error)
	PersistAssistantMessage(ctx context.Context, sessionId uuid.UUID, content string) (*entity.Message, error)
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	limitService IMessageLimitService
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, limitService IMessageLimitService) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		limitService: limitService,
	}
}

func (s *chatService) GetOrCreateDefaultSession(ctx context.Context, identity string) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.OwnedByIdentity{Identity: identity},
		specification.DefaultSessionOnly{},
	)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	now := time.Now().UTC()
	session = &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    identity,
		Title:     entity.DefaultSessionTitle,
		Meta:      map[string]any{"is_default": true},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *chatService) GetOwnedSession(ctx context.Context, identity string, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByIdentity{Identity: identity},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *chatService) ListSessions(ctx context.Context, identity string) ([]dto.ChatSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedByIdentity{Identity: identity},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.ChatSessionResponse, len(sessions))
	for i, session := range sessions {
		res[i] = *sessionToDTO(session)
	}
	return res, nil
}

func (s *chatService) CreateSession(ctx context.Context, identity, title string) (*dto.ChatSessionResponse, error) {
	if title == "" {
		title = "New Chat"
	}

	now := time.Now().UTC()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    identity,
		Title:     title,
		Meta:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return sessionToDTO(session), nil
}

func (s *chatService) GetSessionDetail(ctx context.Context, identity string, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	session, err := s.GetOwnedSession(ctx, identity, sessionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.SessionDetailResponse{
		Session:  *sessionToDTO(session),
		Messages: messagesToDTOs(messages),
	}
	return res, nil
}

func (s *chatService) DeleteSession(ctx context.Context, identity string, sessionId uuid.UUID) error {
	session, err := s.GetOwnedSession(ctx, identity, sessionId)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}
	s.limitService.Invalidate(ctx, identity)
	return nil
}

func (s *chatService) History(ctx context.Context, identity string, limit int) (*dto.ChatHistoryResponse, error) {
	session, err := s.GetOrCreateDefaultSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	messages, err := s.RecentMessages(ctx, session.Id, limit)
	if err != nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		SessionId: session.Id,
		Messages:  messagesToDTOs(messages),
	}, nil
}

func (s *chatService) RecentMessages(ctx context.Context, sessionId uuid.UUID, n int) ([]*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Newest n, then flip back to chronological.
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: n},
	)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *chatService) PersistUserMessage(ctx context.Context, session *entity.ChatSession, identity string, authUserId *uuid.UUID, content string) (*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msg := &entity.Message{
		Id:          uuid.New(),
		SessionId:   session.Id,
		AuthUserId:  authUserId,
		Content:     content,
		Sender:      entity.MessageSenderUser,
		MessageType: "message",
		CreatedAt:   time.Now().UTC(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}

	// First message titles the session.
	if session.Title == "" || session.Title == entity.DefaultSessionTitle || session.Title == "New Chat" {
		count, err := uow.ChatMessageRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
		if err != nil {
			return nil, err
		}
		if count == 1 {
			session.Title = titleFromContent(content)
		}
	}

	session.UpdatedAt = msg.CreatedAt
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.limitService.Invalidate(ctx, identity)
	return msg, nil
}

func (s *chatService) PersistAssistantMessage(ctx context.Context, sessionId uuid.UUID, content string) (*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msg := &entity.Message{
		Id:          uuid.New(),
		SessionId:   sessionId,
		Content:     content,
		Sender:      entity.MessageSenderAssistant,
		MessageType: "message",
		CreatedAt:   time.Now().UTC(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func titleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= sessionTitleMaxLen {
		return content
	}
	return string(runes[:sessionTitleMaxLen]) + "..."
}

func sessionToDTO(session *entity.ChatSession) *dto.ChatSessionResponse {
	return &dto.ChatSessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		IsDefault: session.IsDefault(),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

func messageToDTO(msg *entity.Message) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Content:   msg.Content,
		Sender:    string(msg.Sender),
		CreatedAt: msg.CreatedAt,
	}
}

func messagesToDTOs(messages []*entity.Message) []dto.ChatMessageResponse {
	res := make([]dto.ChatMessageResponse, len(messages))
	for i, msg := range messages {
		res[i] = *messageToDTO(msg)
	}
	return res
}
