package service

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndVerifyEmail(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	res, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "alice@example.com",
		Password:    "password123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.True(t, res.VerificationPending)
	assert.False(t, res.User.IsEmailVerified)
	assert.Equal(t, "user", res.User.Role)

	// Duplicate registration is rejected.
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Email:       "alice@example.com",
		Password:    "password123",
		DisplayName: "Alice Again",
	})
	assert.Error(t, err)

	rawToken := mailerStub.waitToken(t)

	require.NoError(t, svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: rawToken}))

	profile, err := svc.Me(ctx, res.User.Id)
	require.NoError(t, err)
	assert.True(t, profile.IsEmailVerified)

	// Tokens are single-use.
	err = svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: rawToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "bob@example.com",
		Password:    "password123",
		DisplayName: "Bob",
	})
	require.NoError(t, err)
	rawToken := mailerStub.waitToken(t)

	// Push the token past its 24h window.
	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Model(&model.EmailVerificationToken{}).
		Where("1 = 1").Update("expires_at", expired).Error)

	err = svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: rawToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResendVerificationCooldown(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "carol@example.com",
		Password:    "password123",
		DisplayName: "Carol",
	})
	require.NoError(t, err)
	firstToken := mailerStub.waitToken(t)

	// Immediately after registering the cooldown is still running.
	err = svc.ResendVerification(ctx, &dto.ResendVerificationRequest{Email: "carol@example.com"})
	assert.ErrorIs(t, err, ErrResendCooldown)

	// Backdate the existing token so the cooldown has elapsed.
	past := time.Now().UTC().Add(-2 * time.Minute)
	require.NoError(t, db.Model(&model.EmailVerificationToken{}).
		Where("1 = 1").Update("created_at", past).Error)

	require.NoError(t, svc.ResendVerification(ctx, &dto.ResendVerificationRequest{Email: "carol@example.com"}))
	secondToken := mailerStub.waitToken(t)
	require.NotEqual(t, firstToken, secondToken)

	// The superseded token is dead, the new one works.
	assert.ErrorIs(t, svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: firstToken}), ErrInvalidToken)
	assert.NoError(t, svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: secondToken}))

	// Unknown addresses are not revealed.
	assert.NoError(t, svc.ResendVerification(ctx, &dto.ResendVerificationRequest{Email: "nobody@example.com"}))
}

func TestLoginErrors(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	res, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "dave@example.com",
		Password:    "password123",
		DisplayName: "Dave",
	})
	require.NoError(t, err)
	mailerStub.waitToken(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "dave@example.com", Password: "nope-nope"}, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"}, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("blocked account", func(t *testing.T) {
		require.NoError(t, db.Model(&model.User{}).
			Where("id = ?", res.User.Id).Update("is_blocked", true).Error)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "dave@example.com", Password: "password123"}, "", "")
		assert.ErrorIs(t, err, ErrAccountBlocked)
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "erin@example.com",
		Password:    "password123",
		DisplayName: "Erin",
	})
	require.NoError(t, err)
	mailerStub.waitToken(t)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "erin@example.com", Password: "password123"}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, login.Tokens.RefreshToken)
	assert.Equal(t, "bearer", login.Tokens.TokenType)

	rotated, err := svc.Refresh(ctx, login.Tokens.RefreshToken, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, rotated.RefreshToken)

	// The presented token was burned by the rotation.
	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The rotated token still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
}

func TestLogoutAllDevices(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	mailerStub := newRecordingMailer()
	svc := NewAuthService(uowFactory, mailerStub, nil, newTestConfig(), nopLogger{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "frank@example.com",
		Password:    "password123",
		DisplayName: "Frank",
	})
	require.NoError(t, err)
	mailerStub.waitToken(t)

	first, err := svc.Login(ctx, &dto.LoginRequest{Email: "frank@example.com", Password: "password123"}, "", "laptop")
	require.NoError(t, err)
	second, err := svc.Login(ctx, &dto.LoginRequest{Email: "frank@example.com", Password: "password123"}, "", "phone")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.Tokens.RefreshToken, true))

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Refresh(ctx, second.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Logging out an already-dead token is a no-op.
	assert.NoError(t, svc.Logout(ctx, first.Tokens.RefreshToken, false))
}
