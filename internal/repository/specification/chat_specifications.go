package specification

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// OwnedByIdentity scopes sessions to one identity (registered user uuid
// string or anonymous cookie id).
type OwnedByIdentity struct {
	Identity string
}

func (s OwnedByIdentity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.Identity)
}

type BySender struct {
	Sender string
}

func (s BySender) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender = ?", s.Sender)
}

type ByAuthUserID struct {
	UserID uuid.UUID
}

func (s ByAuthUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("auth_user_id = ?", s.UserID)
}

// DefaultSessionOnly selects sessions flagged is_default in their meta.
type DefaultSessionOnly struct{}

func (s DefaultSessionOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(datatypes.JSONQuery("meta").Equals(true, "is_default"))
}
