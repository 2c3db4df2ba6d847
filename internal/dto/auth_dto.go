// FILE: internal/dto/auth_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	AllDevices   bool   `json:"all_devices"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Access token lifetime in seconds
}

type LoginResponse struct {
	User   UserProfileResponse `json:"user"`
	Tokens TokenPairResponse   `json:"tokens"`
}

type RegisterResponse struct {
	User                UserProfileResponse `json:"user"`
	VerificationPending bool                `json:"verification_pending"`
}

type UserProfileResponse struct {
	Id              uuid.UUID `json:"id"`
	Email           *string   `json:"email"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Role            string    `json:"role"`
	Provider        string    `json:"provider"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsBlocked       bool      `json:"is_blocked"`
	MessageLimit    *int      `json:"message_limit"` // nil means unlimited
	CreatedAt       time.Time `json:"created_at"`
}

// --- OAuth ---

type OAuthProviderInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

type OAuthProvidersResponse struct {
	Providers []OAuthProviderInfo `json:"providers"`
}

type OAuthRedirectResponse struct {
	AuthURL string `json:"auth_url"`
}
