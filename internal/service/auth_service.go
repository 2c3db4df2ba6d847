// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/mailer"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrResendCooldown     = errors.New("please wait before requesting another verification email")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error
	Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenPairResponse, error)
	// Logout revokes the presented refresh token; with allDevices it
	// revokes every session of the token's owner.
	Logout(ctx context.Context, refreshToken string, allDevices bool) error
	LogoutAll(ctx context.Context, userId uuid.UUID) (int64, error)
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)

	// IssueTokenPair is shared with the OAuth flow.
	IssueTokenPair(ctx context.Context, user *entity.User, ipAddress, userAgent string) (*dto.TokenPairResponse, error)
	// EnsureInitialAdmin promotes the configured bootstrap admin on login.
	EnsureInitialAdmin(ctx context.Context, user *entity.User) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	cfg            *config.Config
	log            logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	cfg *config.Config,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		log:            log,
	}
}

// --- token helpers ---

func sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// generateSecureToken returns a 32-byte url-safe random string. Used for
// refresh and email verification tokens.
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func (s *authService) signAccessToken(user *entity.User, now time.Time) (string, error) {
	expiry := time.Duration(s.cfg.JWT.AccessTokenMinutes) * time.Minute
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    string(user.Role),
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *authService) IssueTokenPair(ctx context.Context, user *entity.User, ipAddress, userAgent string) (*dto.TokenPairResponse, error) {
	now := time.Now().UTC()

	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, err
	}

	rawRefresh, err := generateSecureToken()
	if err != nil {
		return nil, err
	}

	var ipPtr, uaPtr *string
	if ipAddress != "" {
		ipPtr = &ipAddress
	}
	if userAgent != "" {
		uaPtr = &userAgent
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := &entity.UserSession{
		Id:               uuid.New(),
		UserId:           user.Id,
		RefreshTokenHash: sha256Hex(rawRefresh),
		UserAgent:        uaPtr,
		IPAddress:        ipPtr,
		ExpiresAt:        now.AddDate(0, 0, s.cfg.JWT.RefreshTokenDays),
		CreatedAt:        now,
	}
	if err := uow.UserSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenMinutes * 60,
	}, nil
}

func (s *authService) EnsureInitialAdmin(ctx context.Context, user *entity.User) error {
	adminEmail := s.cfg.App.InitialAdminEmail
	if adminEmail == "" || user.Email == nil || *user.Email != adminEmail {
		return nil
	}
	if user.Role == entity.UserRoleAdmin {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().UpdateRole(ctx, user.Id, entity.UserRoleAdmin); err != nil {
		return err
	}
	user.Role = entity.UserRoleAdmin
	s.log.Info("auth", "Promoted initial admin", map[string]interface{}{"user_id": user.Id.String()})
	return nil
}

// --- flows ---

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	displayName := req.DisplayName
	if displayName == "" {
		displayName = displayNameFromEmail(req.Email)
	}

	now := time.Now().UTC()
	email := req.Email
	user := &entity.User{
		Id:                uuid.New(),
		Email:             &email,
		PasswordHash:      &hashStr,
		Provider:          string(entity.AuthProviderEmail),
		DisplayName:       displayName,
		Role:              entity.UserRoleUser,
		ContextWindowSize: 20,
		IsEmailVerified:   false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	rawToken, err := s.createVerificationToken(ctx, uow, user.Id, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	go func() {
		if emailErr := s.emailService.SendVerificationEmail(email, rawToken); emailErr != nil {
			s.log.Error("auth", "Failed to send verification email", map[string]interface{}{
				"email": email, "error": emailErr.Error(),
			})
		}
	}()

	s.publishEvent(ctx, "user.registered", map[string]interface{}{
		"user_id": user.Id, "provider": user.Provider,
	})

	return &dto.RegisterResponse{
		User:                *userToProfile(user),
		VerificationPending: true,
	}, nil
}

// createVerificationToken stores a hashed 24h token and returns the raw value.
func (s *authService) createVerificationToken(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, now time.Time) (string, error) {
	rawToken, err := generateSecureToken()
	if err != nil {
		return "", err
	}

	token := &entity.EmailVerificationToken{
		Id:        uuid.New(),
		UserId:    userId,
		TokenHash: sha256Hex(rawToken),
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}
	if err := uow.VerificationTokenRepository().Create(ctx, token); err != nil {
		return "", err
	}
	return rawToken, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == nil {
		return nil, errors.New("account registered via " + user.Provider + "; use that provider to sign in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}

	if err := s.EnsureInitialAdmin(ctx, user); err != nil {
		s.log.Warn("auth", "Initial admin promotion failed", map[string]interface{}{"error": err.Error()})
	}

	tokens, err := s.IssueTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		User:   *userToProfile(user),
		Tokens: *tokens,
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	token, err := uow.VerificationTokenRepository().FindOne(ctx,
		specification.ByTokenHash{Hash: sha256Hex(req.Token)},
	)
	if err != nil {
		return err
	}
	if token == nil || token.IsUsed {
		return ErrInvalidToken
	}
	if token.IsExpired(time.Now().UTC()) {
		return ErrInvalidToken
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.VerificationTokenRepository().MarkUsed(ctx, token.Id); err != nil {
		return err
	}
	if err := uow.UserRepository().MarkEmailVerified(ctx, token.UserId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *authService) ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return err
	}
	if user == nil {
		// Don't leak whether the address exists.
		return nil
	}
	if user.IsEmailVerified {
		return errors.New("email already verified")
	}

	now := time.Now().UTC()
	cooldown := time.Duration(s.cfg.Limits.ResendCooldownSeconds) * time.Second

	latest, err := uow.VerificationTokenRepository().FindLatestForUser(ctx, user.Id)
	if err != nil {
		return err
	}
	if latest != nil && now.Sub(latest.CreatedAt) < cooldown {
		return ErrResendCooldown
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.VerificationTokenRepository().InvalidateUnusedForUser(ctx, user.Id); err != nil {
		return err
	}

	rawToken, err := s.createVerificationToken(ctx, uow, user.Id, now)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	go func() {
		if emailErr := s.emailService.SendVerificationEmail(req.Email, rawToken); emailErr != nil {
			s.log.Error("auth", "Failed to resend verification email", map[string]interface{}{
				"email": req.Email, "error": emailErr.Error(),
			})
		}
	}()

	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenPairResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.UserSessionRepository().FindOne(ctx,
		specification.ByRefreshTokenHash{Hash: sha256Hex(refreshToken)},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	if session.IsExpired(time.Now().UTC()) {
		_ = uow.UserSessionRepository().Delete(ctx, session.Id)
		return nil, ErrInvalidToken
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: session.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsBlocked {
		_ = uow.UserSessionRepository().Delete(ctx, session.Id)
		return nil, ErrInvalidToken
	}

	// Rotate: the presented token is burned whether or not issuing succeeds.
	if err := uow.UserSessionRepository().Delete(ctx, session.Id); err != nil {
		return nil, err
	}

	return s.IssueTokenPair(ctx, user, ipAddress, userAgent)
}

func (s *authService) Logout(ctx context.Context, refreshToken string, allDevices bool) error {
	if refreshToken == "" {
		return nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.UserSessionRepository().FindOne(ctx,
		specification.ByRefreshTokenHash{Hash: sha256Hex(refreshToken)},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if allDevices {
		_, err := uow.UserSessionRepository().DeleteAllForUser(ctx, session.UserId)
		return err
	}
	return uow.UserSessionRepository().Delete(ctx, session.Id)
}

func (s *authService) LogoutAll(ctx context.Context, userId uuid.UUID) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserSessionRepository().DeleteAllForUser(ctx, userId)
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return userToProfile(user), nil
}

func (s *authService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	event := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.log.Warn("auth", "Failed to publish event", map[string]interface{}{
			"type": eventType, "error": err.Error(),
		})
	}
}

func userToProfile(user *entity.User) *dto.UserProfileResponse {
	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}
	return &dto.UserProfileResponse{
		Id:              user.Id,
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		AvatarURL:       avatar,
		Role:            string(user.Role),
		Provider:        user.Provider,
		IsEmailVerified: user.IsEmailVerified,
		IsBlocked:       user.IsBlocked,
		MessageLimit:    user.EffectiveMessageLimit(),
		CreatedAt:       user.CreatedAt,
	}
}
