package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai-chat-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, role string, mutate func(*model.User)) uuid.UUID {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", uuid.NewString())
	user := &model.User{
		Id:                uuid.New(),
		Email:             &email,
		Provider:          "email",
		DisplayName:       "Seeded",
		Role:              role,
		ContextWindowSize: 20,
		IsEmailVerified:   true,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user.Id
}

func TestAnonymousQuotaExhaustion(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	chat := NewChatService(uowFactory, limits)
	ctx := context.Background()

	identity := "anon-quota-1"
	session, err := chat.GetOrCreateDefaultSession(ctx, identity)
	require.NoError(t, err)

	// The anonymous quota is 5 lifetime messages.
	for i := 0; i < 5; i++ {
		state, err := limits.Check(ctx, identity)
		require.NoError(t, err)
		assert.True(t, state.CanSend, "message %d should be allowed", i+1)

		_, err = chat.PersistUserMessage(ctx, session, identity, nil, fmt.Sprintf("message %d", i+1))
		require.NoError(t, err)
	}

	state, err := limits.Check(ctx, identity)
	require.NoError(t, err)
	assert.False(t, state.CanSend)
	assert.Equal(t, "anonymous", state.Role)
	assert.Equal(t, 5, state.Used)
	require.NotNil(t, state.Remaining)
	assert.Equal(t, 0, *state.Remaining)

	// Assistant replies never count against the quota.
	_, err = chat.PersistAssistantMessage(ctx, session.Id, "a reply")
	require.NoError(t, err)
	limits.Invalidate(ctx, identity)

	state, err = limits.Check(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Used)
}

func TestUnlimitedRoleHasNoQuota(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "unlimited", nil)

	state, err := limits.Check(ctx, userId.String())
	require.NoError(t, err)
	assert.True(t, state.IsUnlimited)
	assert.True(t, state.CanSend)
	assert.Nil(t, state.Limit)
	assert.Nil(t, state.Remaining)
}

func TestExplicitLimitOverridesRoleDefault(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	ctx := context.Background()

	two := 2
	userId := seedUser(t, db, "user", func(u *model.User) { u.MessageLimit = &two })

	state, err := limits.Check(ctx, userId.String())
	require.NoError(t, err)
	require.NotNil(t, state.Limit)
	assert.Equal(t, 2, *state.Limit)
}

func TestBlockedUserCannotSend(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "unlimited", func(u *model.User) { u.IsBlocked = true })

	state, err := limits.Check(ctx, userId.String())
	require.NoError(t, err)
	assert.False(t, state.CanSend)
	require.NotNil(t, state.Limit)
	assert.Equal(t, 0, *state.Limit)
	assert.False(t, state.IsUnlimited)
}

func TestUnverifiedEmailUserCannotSend(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "user", func(u *model.User) { u.IsEmailVerified = false })

	state, err := limits.Check(ctx, userId.String())
	require.NoError(t, err)
	assert.False(t, state.CanSend)
	assert.True(t, state.RequiresVerification)
}

func TestOAuthUserNeedsNoVerification(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	ctx := context.Background()

	userId := seedUser(t, db, "user", func(u *model.User) {
		u.Provider = "google"
		u.IsEmailVerified = false
	})

	state, err := limits.Check(ctx, userId.String())
	require.NoError(t, err)
	assert.False(t, state.RequiresVerification)
	assert.True(t, state.CanSend)
}
