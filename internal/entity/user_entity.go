// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAnonymous UserRole = "anonymous"
	UserRoleUser      UserRole = "user"
	UserRoleUnlimited UserRole = "unlimited"
	UserRoleAdmin     UserRole = "admin"
)

// defaultMessageLimits maps each role to its default quota.
// A nil value means unbounded.
var defaultMessageLimits = map[UserRole]*int{
	UserRoleAnonymous: intPtr(5),
	UserRoleUser:      intPtr(30),
	UserRoleUnlimited: nil,
	UserRoleAdmin:     nil,
}

func intPtr(v int) *int { return &v }

// ParseUserRole returns the role for s, falling back to UserRoleUser
// for unknown values so a bad row never grants unlimited access.
func ParseUserRole(s string) UserRole {
	switch UserRole(s) {
	case UserRoleAnonymous, UserRoleUser, UserRoleUnlimited, UserRoleAdmin:
		return UserRole(s)
	default:
		return UserRoleUser
	}
}

// DefaultLimitForRole returns the default message quota for a role,
// nil meaning unbounded.
func DefaultLimitForRole(role UserRole) *int {
	if limit, ok := defaultMessageLimits[role]; ok {
		return limit
	}
	return defaultMessageLimits[UserRoleUser]
}

type AuthProvider string

const (
	AuthProviderEmail    AuthProvider = "email"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderGitHub   AuthProvider = "github"
	AuthProviderFacebook AuthProvider = "facebook"
)

type User struct {
	Id                uuid.UUID
	Email             *string
	PasswordHash      *string
	Provider          string
	ProviderId        *string
	DisplayName       string
	AvatarURL         *string
	Role              UserRole
	MessageLimit      *int // explicit admin override, wins over the role default
	ContextWindowSize int
	IsBlocked         bool
	IsEmailVerified   bool
	ReceiveReports    bool // opted in to the periodic admin report email
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveMessageLimit resolves the quota for this user: the explicit
// override when set, otherwise the role default. Nil means unbounded.
func (u *User) EffectiveMessageLimit() *int {
	if u.MessageLimit != nil {
		return u.MessageLimit
	}
	return DefaultLimitForRole(u.Role)
}
