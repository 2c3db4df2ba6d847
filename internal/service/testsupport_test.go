package service

import (
	"testing"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSqliteDB(":memory:")
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.EmailVerificationToken{},
		&model.UserSession{},
		&model.ChatSession{},
		&model.Message{},
		&model.ReportSchedule{},
	))
	return db
}

func newTestFactory(t *testing.T) (unitofwork.RepositoryFactory, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return unitofwork.NewRepositoryFactory(db), db
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			BaseURL:   "http://localhost:8000",
			ClientURL: "http://localhost:5173",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			AccessTokenMinutes: 30,
			RefreshTokenDays:   7,
		},
		Limits: config.LimitConfig{
			ResendCooldownSeconds: 60,
			HistoryLimit:          50,
		},
	}
}

// nopLogger keeps service tests quiet.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

// recordingMailer captures verification tokens that would go out by email.
type recordingMailer struct {
	tokens chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{tokens: make(chan string, 8)}
}

func (m *recordingMailer) SendVerificationEmail(toEmail, token string) error {
	m.tokens <- token
	return nil
}

func (m *recordingMailer) SendReportEmail(toEmail, subject, htmlBody string) error {
	return nil
}

func (m *recordingMailer) waitToken(t *testing.T) string {
	t.Helper()
	select {
	case token := <-m.tokens:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("no verification email was sent")
		return ""
	}
}
