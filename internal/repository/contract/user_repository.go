package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
	UpdateBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	UpdateMessageLimit(ctx context.Context, id uuid.UUID, limit *int) error
	UpdateReceiveReports(ctx context.Context, id uuid.UUID, subscribed bool) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}
