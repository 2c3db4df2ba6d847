package contract

import (
	"context"
	"time"
)

type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type TopUser struct {
	Identifier   string  `json:"identifier"`
	DisplayName  *string `json:"display_name"`
	MessageCount int64   `json:"message_count"`
	UserType     string  `json:"user_type"` // registered | anonymous
}

type RecentUser struct {
	Id          string    `json:"id"`
	Email       *string   `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserCounts struct {
	RegisteredUsers     int64 `json:"registered_users"`
	UniqueSessionOwners int64 `json:"unique_session_owners"`
	TotalChatSessions   int64 `json:"total_chat_sessions"`
}

type MessageStats struct {
	TotalMessages     int64   `json:"total_messages"`
	UserMessages      int64   `json:"user_messages"`
	AssistantMessages int64   `json:"assistant_messages"`
	MessagesToday     int64   `json:"messages_today"`
	AvgPerSession     float64 `json:"avg_per_session"`
}

type SessionStats struct {
	TotalSessions int64 `json:"total_sessions"`
	ActiveToday   int64 `json:"active_today"`
	UniqueOwners  int64 `json:"unique_owners"`
}

type DailyActivity struct {
	Day          string `json:"day"` // YYYY-MM-DD
	MessageCount int64  `json:"message_count"`
	ActiveUsers  int64  `json:"active_users"`
}

// StatsRepository aggregates usage statistics across users, sessions and
// messages. A nil since filter means all time.
type StatsRepository interface {
	UserCounts(ctx context.Context, since *time.Time) (*UserCounts, error)
	UsersByRole(ctx context.Context, since *time.Time) ([]RoleCount, error)
	TopActiveUsers(ctx context.Context, limit int, since *time.Time) ([]TopUser, error)
	RecentUsers(ctx context.Context, limit int, since *time.Time) ([]RecentUser, error)
	MessageStats(ctx context.Context, since *time.Time) (*MessageStats, error)
	SessionStats(ctx context.Context, since *time.Time) (*SessionStats, error)
	DailyActivity(ctx context.Context, days int) ([]DailyActivity, error)
}
