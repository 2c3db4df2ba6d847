package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerificationToken proves control of an email address. Only the
// SHA-256 hash of the raw token is stored; the raw value travels in the
// verification email and nowhere else.
type EmailVerificationToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

func (t *EmailVerificationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// UserSession backs one refresh token. Rotated on every refresh,
// deleted on logout or expiry.
type UserSession struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	RefreshTokenHash string
	UserAgent        *string
	IPAddress        *string
	ExpiresAt        time.Time
	LastUsedAt       *time.Time
	CreatedAt        time.Time
}

func (s *UserSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
