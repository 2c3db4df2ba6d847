// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

type IOAuthService interface {
	Providers() *dto.OAuthProvidersResponse
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state, ipAddress, userAgent string) (*dto.LoginResponse, error)
}

// oauthProfile is the provider-agnostic result of a profile fetch.
type oauthProfile struct {
	ProviderId  string
	Email       string
	DisplayName string
	AvatarURL   string
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	authService IAuthService
	configs     map[string]*oauth2.Config
	// stateCache holds anti-CSRF state values for the duration of a login
	// round-trip.
	stateCache *cache.Cache
	httpClient *http.Client
	log        logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	authService IAuthService,
	cfg *config.Config,
	log logger.ILogger,
) IOAuthService {
	callback := func(provider string) string {
		return fmt.Sprintf("%s/api/auth/%s/callback", cfg.App.BaseURL, provider)
	}

	configs := make(map[string]*oauth2.Config)
	if cfg.OAuth.Google.ClientID != "" {
		configs["google"] = &oauth2.Config{
			ClientID:     cfg.OAuth.Google.ClientID,
			ClientSecret: cfg.OAuth.Google.ClientSecret,
			RedirectURL:  callback("google"),
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	if cfg.OAuth.GitHub.ClientID != "" {
		configs["github"] = &oauth2.Config{
			ClientID:     cfg.OAuth.GitHub.ClientID,
			ClientSecret: cfg.OAuth.GitHub.ClientSecret,
			RedirectURL:  callback("github"),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}
	if cfg.OAuth.Facebook.ClientID != "" {
		configs["facebook"] = &oauth2.Config{
			ClientID:     cfg.OAuth.Facebook.ClientID,
			ClientSecret: cfg.OAuth.Facebook.ClientSecret,
			RedirectURL:  callback("facebook"),
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		}
	}

	return &oauthService{
		uowFactory:  uowFactory,
		authService: authService,
		configs:     configs,
		stateCache:  cache.New(10*time.Minute, 5*time.Minute),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		log:         log,
	}
}

func (s *oauthService) Providers() *dto.OAuthProvidersResponse {
	res := &dto.OAuthProvidersResponse{}
	for _, name := range []string{"google", "github", "facebook"} {
		_, configured := s.configs[name]
		res.Providers = append(res.Providers, dto.OAuthProviderInfo{
			Name:       name,
			Configured: configured,
		})
	}
	return res
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return "", ErrUnsupportedProvider
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.stateCache.SetDefault(state, provider)

	return conf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code, state, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	// State is single-use.
	storedProvider, found := s.stateCache.Get(state)
	if !found || storedProvider != provider {
		return nil, errors.New("invalid or expired oauth state")
	}
	s.stateCache.Delete(state)

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, provider, conf, token)
	if err != nil {
		return nil, err
	}

	user, err := s.getOrCreateUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}

	if err := s.authService.EnsureInitialAdmin(ctx, user); err != nil {
		s.log.Warn("oauth", "Initial admin promotion failed", map[string]interface{}{"error": err.Error()})
	}

	tokens, err := s.authService.IssueTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		User:   *userToProfile(user),
		Tokens: *tokens,
	}, nil
}

// --- profile fetching ---

func (s *oauthService) fetchProfile(ctx context.Context, provider string, conf *oauth2.Config, token *oauth2.Token) (*oauthProfile, error) {
	switch provider {
	case "google":
		return s.fetchGoogleProfile(ctx, conf, token)
	case "github":
		return s.fetchGitHubProfile(ctx, conf, token)
	case "facebook":
		return s.fetchFacebookProfile(ctx, conf, token)
	default:
		return nil, ErrUnsupportedProvider
	}
}

func (s *oauthService) getJSON(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, url string, out interface{}) error {
	client := conf.Client(ctx, token)
	client.Timeout = s.httpClient.Timeout

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile fetch failed: status %d, body %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (s *oauthService) fetchGoogleProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthProfile, error) {
	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := s.getJSON(ctx, conf, token, "https://www.googleapis.com/oauth2/v2/userinfo", &googleUser); err != nil {
		return nil, err
	}
	return &oauthProfile{
		ProviderId:  googleUser.ID,
		Email:       googleUser.Email,
		DisplayName: googleUser.Name,
		AvatarURL:   googleUser.Picture,
	}, nil
}

func (s *oauthService) fetchGitHubProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthProfile, error) {
	var ghUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := s.getJSON(ctx, conf, token, "https://api.github.com/user", &ghUser); err != nil {
		return nil, err
	}

	email := ghUser.Email
	if email == "" {
		// The public profile email is often hidden; fall back to the
		// primary verified address on /user/emails.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := s.getJSON(ctx, conf, token, "https://api.github.com/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
			if email == "" {
				for _, e := range emails {
					if e.Verified {
						email = e.Email
						break
					}
				}
			}
		}
	}

	displayName := ghUser.Name
	if displayName == "" {
		displayName = ghUser.Login
	}

	return &oauthProfile{
		ProviderId:  fmt.Sprintf("%d", ghUser.ID),
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   ghUser.AvatarURL,
	}, nil
}

func (s *oauthService) fetchFacebookProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthProfile, error) {
	var fbUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	url := "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"
	if err := s.getJSON(ctx, conf, token, url, &fbUser); err != nil {
		return nil, err
	}
	return &oauthProfile{
		ProviderId:  fbUser.ID,
		Email:       fbUser.Email,
		DisplayName: fbUser.Name,
		AvatarURL:   fbUser.Picture.Data.URL,
	}, nil
}

// getOrCreateUser matches by provider identity first, then links by email,
// then creates. OAuth emails count as verified.
func (s *oauthService) getOrCreateUser(ctx context.Context, provider string, profile *oauthProfile) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByProviderIdentity{
		Provider:   provider,
		ProviderId: profile.ProviderId,
	})
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if profile.Email != "" {
		user, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: profile.Email})
		if err != nil {
			return nil, err
		}
		if user != nil {
			// Link this provider to the existing account.
			providerId := profile.ProviderId
			user.Provider = provider
			user.ProviderId = &providerId
			user.IsEmailVerified = true
			if user.AvatarURL == nil && profile.AvatarURL != "" {
				avatar := profile.AvatarURL
				user.AvatarURL = &avatar
			}
			if err := uow.UserRepository().Update(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		}
	}

	now := time.Now().UTC()
	providerId := profile.ProviderId
	displayName := profile.DisplayName
	if displayName == "" && profile.Email != "" {
		displayName = displayNameFromEmail(profile.Email)
	}

	user = &entity.User{
		Id:                uuid.New(),
		Provider:          provider,
		ProviderId:        &providerId,
		DisplayName:       displayName,
		Role:              entity.UserRoleUser,
		ContextWindowSize: 20,
		IsEmailVerified:   profile.Email != "",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if profile.Email != "" {
		email := profile.Email
		user.Email = &email
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("oauth", "Created user from oauth profile", map[string]interface{}{
		"provider": provider, "user_id": user.Id.String(),
	})
	return user, nil
}
