package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type VerificationTokenRepository interface {
	Create(ctx context.Context, token *entity.EmailVerificationToken) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	// FindLatestForUser returns the most recently created token regardless
	// of its used flag; used for the resend cooldown.
	FindLatestForUser(ctx context.Context, userId uuid.UUID) (*entity.EmailVerificationToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	InvalidateUnusedForUser(ctx context.Context, userId uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userId uuid.UUID) error
}
