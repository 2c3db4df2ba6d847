package service

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminSelfProtection(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	adminId := seedUser(t, db, "admin", nil)

	t.Run("cannot change own role", func(t *testing.T) {
		err := svc.UpdateRole(ctx, adminId, adminId, "user")
		assert.ErrorIs(t, err, ErrSelfRoleChange)
	})

	t.Run("cannot block self", func(t *testing.T) {
		err := svc.SetBlocked(ctx, adminId, adminId, true)
		assert.ErrorIs(t, err, ErrSelfBlock)
	})

	t.Run("unblocking self is allowed", func(t *testing.T) {
		err := svc.SetBlocked(ctx, adminId, adminId, false)
		assert.NoError(t, err)
	})

	t.Run("cannot delete self", func(t *testing.T) {
		err := svc.DeleteUser(ctx, adminId, adminId)
		assert.Error(t, err)
	})
}

func TestUpdateRoleValidation(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	adminId := seedUser(t, db, "admin", nil)
	userId := seedUser(t, db, "user", nil)

	assert.ErrorIs(t, svc.UpdateRole(ctx, adminId, userId, "superuser"), ErrInvalidUserRole)
	assert.ErrorIs(t, svc.UpdateRole(ctx, adminId, uuid.New(), "user"), ErrUserNotFound)

	require.NoError(t, svc.UpdateRole(ctx, adminId, userId, "unlimited"))
	detail, err := svc.GetUser(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, "unlimited", detail.Role)
	assert.Nil(t, detail.MessageLimit)
}

func TestSetMessageLimit(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "user", nil)

	negative := -1
	assert.ErrorIs(t, svc.SetMessageLimit(ctx, userId, &negative), ErrNegativeUserLimit)

	override := 100
	require.NoError(t, svc.SetMessageLimit(ctx, userId, &override))
	detail, err := svc.GetUser(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, detail.MessageLimit)
	assert.Equal(t, 100, *detail.MessageLimit)

	// Clearing the override falls back to the role default.
	require.NoError(t, svc.SetMessageLimit(ctx, userId, nil))
	detail, err = svc.GetUser(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, detail.MessageLimit)
	assert.Equal(t, 30, *detail.MessageLimit)
}

func TestBlockingRevokesSessions(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	adminId := seedUser(t, db, "admin", nil)
	userId := seedUser(t, db, "user", nil)

	require.NoError(t, db.Create(&model.UserSession{
		Id:               uuid.New(),
		UserId:           userId,
		RefreshTokenHash: uuid.NewString(),
		ExpiresAt:        time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, svc.SetBlocked(ctx, adminId, userId, true))

	var count int64
	require.NoError(t, db.Model(&model.UserSession{}).Where("user_id = ?", userId).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteUserCascades(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	adminSvc := NewAdminService(uowFactory, nopLogger{}, nil)
	limits := NewMessageLimitService(uowFactory, nil)
	chat := NewChatService(uowFactory, limits)
	ctx := context.Background()

	adminId := seedUser(t, db, "admin", nil)
	userId := seedUser(t, db, "user", nil)

	session, err := chat.GetOrCreateDefaultSession(ctx, userId.String())
	require.NoError(t, err)
	_, err = chat.PersistUserMessage(ctx, session, userId.String(), &userId, "to be erased")
	require.NoError(t, err)
	_, err = chat.PersistAssistantMessage(ctx, session.Id, "also erased")
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.EmailVerificationToken{
		Id:        uuid.New(),
		UserId:    userId,
		TokenHash: uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)
	require.NoError(t, db.Create(&model.UserSession{
		Id:               uuid.New(),
		UserId:           userId,
		RefreshTokenHash: uuid.NewString(),
		ExpiresAt:        time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, adminSvc.DeleteUser(ctx, adminId, userId))

	assertEmpty := func(t *testing.T, m interface{}, query string, args ...interface{}) {
		t.Helper()
		var count int64
		require.NoError(t, db.Model(m).Where(query, args...).Count(&count).Error)
		assert.Zero(t, count)
	}

	assertEmpty(t, &model.User{}, "id = ?", userId)
	assertEmpty(t, &model.ChatSession{}, "user_id = ?", userId.String())
	assertEmpty(t, &model.Message{}, "session_id = ?", session.Id)
	assertEmpty(t, &model.EmailVerificationToken{}, "user_id = ?", userId)
	assertEmpty(t, &model.UserSession{}, "user_id = ?", userId)
}

func TestListUsersFiltering(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	seedUser(t, db, "user", func(u *model.User) {
		email := "findme@example.com"
		u.Email = &email
		u.DisplayName = "Findable"
	})
	seedUser(t, db, "admin", nil)
	seedUser(t, db, "user", func(u *model.User) { u.IsBlocked = true })

	t.Run("by role", func(t *testing.T) {
		res, err := svc.ListUsers(ctx, &dto.AdminUserListRequest{Role: "admin"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Total)
	})

	t.Run("by blocked flag", func(t *testing.T) {
		res, err := svc.ListUsers(ctx, &dto.AdminUserListRequest{Blocked: "true"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Total)
	})

	t.Run("by search", func(t *testing.T) {
		res, err := svc.ListUsers(ctx, &dto.AdminUserListRequest{Search: "findme"})
		require.NoError(t, err)
		require.EqualValues(t, 1, res.Total)
		assert.Equal(t, "Findable", res.Users[0].DisplayName)
	})

	t.Run("paging is clamped", func(t *testing.T) {
		res, err := svc.ListUsers(ctx, &dto.AdminUserListRequest{Page: -3, Limit: 9999})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 100, res.Limit)
	})
}

func TestSetReportSubscription(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	svc := NewAdminService(uowFactory, nopLogger{}, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "user", nil)

	assert.ErrorIs(t, svc.SetReportSubscription(ctx, uuid.New(), true), ErrUserNotFound)

	require.NoError(t, svc.SetReportSubscription(ctx, userId, true))
	var row model.User
	require.NoError(t, db.First(&row, "id = ?", userId).Error)
	assert.True(t, row.ReceiveReports)

	require.NoError(t, svc.SetReportSubscription(ctx, userId, false))
	require.NoError(t, db.First(&row, "id = ?", userId).Error)
	assert.False(t, row.ReceiveReports)
}
