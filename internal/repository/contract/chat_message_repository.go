package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	DeleteAllByAuthUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// CountUserMessagesForIdentity counts persisted sender="user" messages
	// for an identity: registered users by auth_user_id, anonymous ones by
	// the owning session's user_id.
	CountUserMessagesForIdentity(ctx context.Context, identity string, authUserId *uuid.UUID) (int64, error)
}
