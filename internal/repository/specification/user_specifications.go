package specification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// ByProviderIdentity matches the OAuth provider + provider-assigned id pair.
type ByProviderIdentity struct {
	Provider   string
	ProviderId string
}

func (s ByProviderIdentity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider = ? AND provider_id = ?", s.Provider, s.ProviderId)
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// SearchUsers does a case-insensitive match over email and display name.
type SearchUsers struct {
	Query string
}

func (s SearchUsers) Apply(db *gorm.DB) *gorm.DB {
	q := "%" + strings.ToLower(s.Query) + "%"
	return db.Where("LOWER(COALESCE(email, '')) LIKE ? OR LOWER(display_name) LIKE ?", q, q)
}

type RoleIs struct {
	Role string
}

func (s RoleIs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

type BlockedIs struct {
	Blocked bool
}

func (s BlockedIs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_blocked = ?", s.Blocked)
}

// ReportSubscribersOnly selects users opted in to the admin report who can
// actually receive one: an email on file and not blocked.
type ReportSubscribersOnly struct{}

func (s ReportSubscribersOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("receive_reports = ? AND email IS NOT NULL AND is_blocked = ?", true, false)
}

// Token Specs

type ByTokenHash struct {
	Hash string
}

func (s ByTokenHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token_hash = ?", s.Hash)
}

type ByRefreshTokenHash struct {
	Hash string
}

func (s ByRefreshTokenHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("refresh_token_hash = ?", s.Hash)
}

type UnusedOnly struct{}

func (s UnusedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_used = ?", false)
}

type ExpiresBefore struct {
	Cutoff time.Time
}

func (s ExpiresBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at < ?", s.Cutoff)
}
