// FILE: internal/service/session_resolver.go
package service

import (
	"context"

	"ai-chat-be/internal/entity"

	"github.com/google/uuid"
)

// SessionResolver decides which chat session a websocket connection binds
// to. The implementation is chosen once at startup.
type SessionResolver interface {
	Resolve(ctx context.Context, identity string, explicitId *uuid.UUID) (*entity.ChatSession, error)
}

// FixedSessionResolver always binds to the identity's default session,
// ignoring any explicit session id (single-session mode).
type FixedSessionResolver struct {
	chatService IChatService
}

func NewFixedSessionResolver(chatService IChatService) *FixedSessionResolver {
	return &FixedSessionResolver{chatService: chatService}
}

func (r *FixedSessionResolver) Resolve(ctx context.Context, identity string, _ *uuid.UUID) (*entity.ChatSession, error) {
	return r.chatService.GetOrCreateDefaultSession(ctx, identity)
}

// ExplicitSessionResolver binds to a caller-chosen session, validating
// ownership; without an explicit id it falls back to the default session.
type ExplicitSessionResolver struct {
	chatService IChatService
}

func NewExplicitSessionResolver(chatService IChatService) *ExplicitSessionResolver {
	return &ExplicitSessionResolver{chatService: chatService}
}

func (r *ExplicitSessionResolver) Resolve(ctx context.Context, identity string, explicitId *uuid.UUID) (*entity.ChatSession, error) {
	if explicitId == nil {
		return r.chatService.GetOrCreateDefaultSession(ctx, identity)
	}
	return r.chatService.GetOwnedSession(ctx, identity, *explicitId)
}
