package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	OAuth    OAuthConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Limits   LimitConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InitialAdminEmail  string
	SingleSessionMode  bool
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". Sqlite takes Path, postgres takes Connection.
	Driver     string
	Connection string
	Path       string
}

type JWTConfig struct {
	Secret             string
	AccessTokenMinutes int
	RefreshTokenDays   int
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
}

type OAuthConfig struct {
	Google   OAuthProviderConfig
	GitHub   OAuthProviderConfig
	Facebook OAuthProviderConfig
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	Provider        string // "ollama", "gemini", "anthropic", "openai"
	Model           string
	OllamaBaseURL   string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

type LimitConfig struct {
	ResendCooldownSeconds int
	HistoryLimit          int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			InitialAdminEmail:  getEnv("INITIAL_ADMIN_EMAIL", ""),
			SingleSessionMode:  getEnvAsBool("SINGLE_SESSION_MODE", false),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Path:       getEnv("DB_PATH", "data/chat.db"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTokenMinutes: getEnvAsInt("JWT_ACCESS_TOKEN_MINUTES", 30),
			RefreshTokenDays:   getEnvAsInt("JWT_REFRESH_TOKEN_DAYS", 7),
		},
		OAuth: OAuthConfig{
			Google: OAuthProviderConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			},
			GitHub: OAuthProviderConfig{
				ClientID:     getEnv("GITHUB_CLIENT_ID", getEnv("GH_CLIENT_ID", "")),
				ClientSecret: getEnv("GITHUB_CLIENT_SECRET", getEnv("GH_CLIENT_SECRET", "")),
			},
			Facebook: OAuthProviderConfig{
				ClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
				ClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
			},
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Chat"),
		},
		Ai: AIConfig{
			Provider:        getEnv("AI_PROVIDER", "ollama"),
			Model:           getEnv("AI_MODEL", ""),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		},
		Limits: LimitConfig{
			ResendCooldownSeconds: getEnvAsInt("VERIFICATION_RESEND_COOLDOWN_SECONDS", 60),
			HistoryLimit:          getEnvAsInt("CHAT_HISTORY_LIMIT", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
