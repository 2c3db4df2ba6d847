package mapper

import (
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:                u.Id,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Provider:          u.Provider,
		ProviderId:        u.ProviderId,
		DisplayName:       u.DisplayName,
		AvatarURL:         u.AvatarURL,
		Role:              entity.ParseUserRole(u.Role),
		MessageLimit:      u.MessageLimit,
		ContextWindowSize: u.ContextWindowSize,
		IsBlocked:         u.IsBlocked,
		IsEmailVerified:   u.IsEmailVerified,
		ReceiveReports:    u.ReceiveReports,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:                u.Id,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Provider:          u.Provider,
		ProviderId:        u.ProviderId,
		DisplayName:       u.DisplayName,
		AvatarURL:         u.AvatarURL,
		Role:              string(u.Role),
		MessageLimit:      u.MessageLimit,
		ContextWindowSize: u.ContextWindowSize,
		IsBlocked:         u.IsBlocked,
		IsEmailVerified:   u.IsEmailVerified,
		ReceiveReports:    u.ReceiveReports,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}

// Token Mappers

func (m *UserMapper) EmailVerificationTokenToEntity(t *model.EmailVerificationToken) *entity.EmailVerificationToken {
	if t == nil {
		return nil
	}
	return &entity.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		IsUsed:    t.IsUsed,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) EmailVerificationTokenToModel(t *entity.EmailVerificationToken) *model.EmailVerificationToken {
	if t == nil {
		return nil
	}
	return &model.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		IsUsed:    t.IsUsed,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) UserSessionToEntity(s *model.UserSession) *entity.UserSession {
	if s == nil {
		return nil
	}
	return &entity.UserSession{
		Id:               s.Id,
		UserId:           s.UserId,
		RefreshTokenHash: s.RefreshTokenHash,
		UserAgent:        s.UserAgent,
		IPAddress:        s.IPAddress,
		ExpiresAt:        s.ExpiresAt,
		LastUsedAt:       s.LastUsedAt,
		CreatedAt:        s.CreatedAt,
	}
}

func (m *UserMapper) UserSessionToModel(s *entity.UserSession) *model.UserSession {
	if s == nil {
		return nil
	}
	return &model.UserSession{
		Id:               s.Id,
		UserId:           s.UserId,
		RefreshTokenHash: s.RefreshTokenHash,
		UserAgent:        s.UserAgent,
		IPAddress:        s.IPAddress,
		ExpiresAt:        s.ExpiresAt,
		LastUsedAt:       s.LastUsedAt,
		CreatedAt:        s.CreatedAt,
	}
}
