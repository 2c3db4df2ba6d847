package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- User Management ---

type AdminUserListRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Search  string `query:"search"`
	Role    string `query:"role"`
	Blocked string `query:"blocked"` // "", "true", "false"
}

type AdminUserListItem struct {
	Id              uuid.UUID `json:"id"`
	Email           *string   `json:"email"`
	DisplayName     string    `json:"display_name"`
	Role            string    `json:"role"`
	Provider        string    `json:"provider"`
	IsBlocked       bool      `json:"is_blocked"`
	IsEmailVerified bool      `json:"is_email_verified"`
	MessageLimit    *int      `json:"message_limit"`
	CreatedAt       time.Time `json:"created_at"`
}

type AdminUserListResponse struct {
	Users []AdminUserListItem `json:"users"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int64               `json:"total"`
}

type AdminUserDetailResponse struct {
	AdminUserListItem
	ContextWindowSize int   `json:"context_window_size"`
	MessageCount      int64 `json:"message_count"`
	SessionCount      int64 `json:"session_count"`
}

type AdminUpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=anonymous user unlimited admin"`
}

type AdminBlockRequest struct {
	Blocked bool `json:"blocked"`
}

type AdminMessageLimitRequest struct {
	// nil clears the override back to the role default.
	MessageLimit *int `json:"message_limit" validate:"omitempty,min=0"`
}

type AdminUserMessagesRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type AdminUserMessagesResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`
	Total    int64                 `json:"total"`
}

// --- Stats ---

type StatsRequest struct {
	Days int `query:"days"` // 0 means all time
}

type RoleCountResponse struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type TopUserResponse struct {
	Identifier   string  `json:"identifier"`
	DisplayName  *string `json:"display_name,omitempty"`
	MessageCount int64   `json:"message_count"`
	UserType     string  `json:"user_type"` // "registered" | "anonymous"
}

type RecentUserResponse struct {
	Id          string    `json:"id"`
	Email       *string   `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatsSummaryResponse struct {
	Users struct {
		Registered          int64 `json:"registered"`
		UniqueSessionOwners int64 `json:"unique_session_owners"`
		TotalChatSessions   int64 `json:"total_chat_sessions"`
	} `json:"users"`
	UsersByRole []RoleCountResponse `json:"users_by_role"`
	Messages    struct {
		Total         int64   `json:"total"`
		UserMessages  int64   `json:"user_messages"`
		AiMessages    int64   `json:"ai_messages"`
		Today         int64   `json:"today"`
		AvgPerSession float64 `json:"avg_per_session"`
	} `json:"messages"`
	Sessions struct {
		Total        int64 `json:"total"`
		ActiveToday  int64 `json:"active_today"`
		UniqueOwners int64 `json:"unique_owners"`
	} `json:"sessions"`
	TopUsers    []TopUserResponse    `json:"top_users"`
	RecentUsers []RecentUserResponse `json:"recent_users"`
	PeriodDays  int                  `json:"period_days"` // 0 means all time
}

type DailyActivityResponse struct {
	Day          string `json:"day"` // YYYY-MM-DD
	MessageCount int64  `json:"message_count"`
	ActiveUsers  int64  `json:"active_users"`
}

// --- Reports ---

type SendReportRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
}

type ReportScheduleResponse struct {
	Enabled              bool       `json:"enabled"`
	ScheduleType         string     `json:"schedule_type"` // "weekly" | "daily" | "disabled"
	DayOfWeek            string     `json:"day_of_week"`
	Hour                 int        `json:"hour"`
	Minute               int        `json:"minute"`
	Recipients           []string   `json:"recipients"`
	SubscribedUsersCount int64      `json:"subscribed_users_count"`
	NextRun              *time.Time `json:"next_run"`
	LastSentAt           *time.Time `json:"last_sent_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ReportRequestedMessage is the payload published on the report.requested
// topic. Empty recipients means "resolve subscribers at send time".
type ReportRequestedMessage struct {
	Recipients  []string  `json:"recipients"`
	RequestedAt time.Time `json:"requested_at"`
	Source      string    `json:"source"` // "manual" | "schedule"
}

// UpdateReportScheduleRequest is a partial update: nil fields keep the
// stored value.
type UpdateReportScheduleRequest struct {
	Enabled      *bool    `json:"enabled"`
	ScheduleType *string  `json:"schedule_type" validate:"omitempty,oneof=weekly daily disabled"`
	DayOfWeek    *string  `json:"day_of_week" validate:"omitempty,oneof=mon tue wed thu fri sat sun"`
	Hour         *int     `json:"hour" validate:"omitempty,min=0,max=23"`
	Minute       *int     `json:"minute" validate:"omitempty,min=0,max=59"`
	Recipients   []string `json:"recipients" validate:"omitempty,dive,email"`
}

type ReportSubscriberResponse struct {
	Id          uuid.UUID `json:"id"`
	Email       *string   `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

type ReportSubscribersResponse struct {
	Subscribers []ReportSubscriberResponse `json:"subscribers"`
	Total       int                        `json:"total"`
}

type AdminReportSubscriptionRequest struct {
	Subscribed bool `json:"subscribed"`
}
