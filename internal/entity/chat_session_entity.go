package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession groups an ordered conversation. UserId is the owning
// identity: a registered user's uuid in string form, or the anonymous
// cookie identifier.
type ChatSession struct {
	Id        uuid.UUID
	UserId    string
	Title     string
	Meta      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

const DefaultSessionTitle = "Default Chat Session"

// IsDefault reports whether this is the identity's default session.
func (s *ChatSession) IsDefault() bool {
	if s.Meta == nil {
		return false
	}
	v, ok := s.Meta["is_default"].(bool)
	return ok && v
}
