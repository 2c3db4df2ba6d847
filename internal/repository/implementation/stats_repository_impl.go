package implementation

import (
	"context"
	"fmt"
	"math"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type StatsRepositoryImpl struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) contract.StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

// dayExpr returns the SQL expression that truncates created_at to a
// YYYY-MM-DD string for the active driver.
func (r *StatsRepositoryImpl) dayExpr() string {
	if r.db.Dialector.Name() == "postgres" {
		return "to_char(created_at, 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', created_at)"
}

func (r *StatsRepositoryImpl) sinceScope(since *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if since != nil {
			return db.Where("created_at >= ?", *since)
		}
		return db
	}
}

func (r *StatsRepositoryImpl) UserCounts(ctx context.Context, since *time.Time) (*contract.UserCounts, error) {
	counts := &contract.UserCounts{}

	if err := r.db.WithContext(ctx).Model(&model.User{}).Scopes(r.sinceScope(since)).
		Count(&counts.RegisteredUsers).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&model.ChatSession{}).Scopes(r.sinceScope(since)).
		Distinct("user_id").Count(&counts.UniqueSessionOwners).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&model.ChatSession{}).Scopes(r.sinceScope(since)).
		Count(&counts.TotalChatSessions).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *StatsRepositoryImpl) UsersByRole(ctx context.Context, since *time.Time) ([]contract.RoleCount, error) {
	var results []contract.RoleCount
	err := r.db.WithContext(ctx).Model(&model.User{}).Scopes(r.sinceScope(since)).
		Select("role, COUNT(id) as count").
		Group("role").
		Order("count DESC").
		Scan(&results).Error
	return results, err
}

func (r *StatsRepositoryImpl) TopActiveUsers(ctx context.Context, limit int, since *time.Time) ([]contract.TopUser, error) {
	sinceFilter := func(db *gorm.DB) *gorm.DB {
		if since != nil {
			return db.Where("messages.created_at >= ?", *since)
		}
		return db
	}

	// Registered senders, attributed by auth_user_id.
	var registered []struct {
		Id           string
		Email        *string
		DisplayName  string
		MessageCount int64
	}
	err := r.db.WithContext(ctx).Table("messages").
		Select("users.id as id, users.email as email, users.display_name as display_name, COUNT(messages.id) as message_count").
		Joins("JOIN users ON users.id = messages.auth_user_id").
		Where("messages.sender = ?", string(entity.MessageSenderUser)).
		Scopes(sinceFilter).
		Group("users.id, users.email, users.display_name").
		Order("message_count DESC").
		Limit(limit).
		Scan(&registered).Error
	if err != nil {
		return nil, err
	}

	// Anonymous senders, attributed by session owner.
	var anonymous []struct {
		SessionOwner string
		MessageCount int64
	}
	err = r.db.WithContext(ctx).Table("messages").
		Select("chat_sessions.user_id as session_owner, COUNT(messages.id) as message_count").
		Joins("JOIN chat_sessions ON chat_sessions.id = messages.session_id").
		Where("messages.sender = ? AND messages.auth_user_id IS NULL", string(entity.MessageSenderUser)).
		Scopes(sinceFilter).
		Group("chat_sessions.user_id").
		Order("message_count DESC").
		Limit(limit).
		Scan(&anonymous).Error
	if err != nil {
		return nil, err
	}

	combined := make([]contract.TopUser, 0, len(registered)+len(anonymous))
	for _, row := range registered {
		identifier := row.Id
		if row.Email != nil && *row.Email != "" {
			identifier = *row.Email
		} else if row.DisplayName != "" {
			identifier = row.DisplayName
		}
		name := row.DisplayName
		combined = append(combined, contract.TopUser{
			Identifier:   identifier,
			DisplayName:  &name,
			MessageCount: row.MessageCount,
			UserType:     "registered",
		})
	}
	for _, row := range anonymous {
		owner := row.SessionOwner
		if len(owner) > 8 {
			owner = owner[:8]
		}
		combined = append(combined, contract.TopUser{
			Identifier:   fmt.Sprintf("Anonymous (%s...)", owner),
			MessageCount: row.MessageCount,
			UserType:     "anonymous",
		})
	}

	// Merge both groups and keep the top N overall.
	for i := 0; i < len(combined); i++ {
		for j := i + 1; j < len(combined); j++ {
			if combined[j].MessageCount > combined[i].MessageCount {
				combined[i], combined[j] = combined[j], combined[i]
			}
		}
	}
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

func (r *StatsRepositoryImpl) RecentUsers(ctx context.Context, limit int, since *time.Time) ([]contract.RecentUser, error) {
	var models []*model.User
	err := r.db.WithContext(ctx).Model(&model.User{}).Scopes(r.sinceScope(since)).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]contract.RecentUser, len(models))
	for i, m := range models {
		users[i] = contract.RecentUser{
			Id:          m.Id.String(),
			Email:       m.Email,
			DisplayName: m.DisplayName,
			Role:        m.Role,
			Provider:    m.Provider,
			CreatedAt:   m.CreatedAt,
		}
	}
	return users, nil
}

func (r *StatsRepositoryImpl) MessageStats(ctx context.Context, since *time.Time) (*contract.MessageStats, error) {
	stats := &contract.MessageStats{}

	if err := r.db.WithContext(ctx).Model(&model.Message{}).Scopes(r.sinceScope(since)).
		Count(&stats.TotalMessages).Error; err != nil {
		return nil, err
	}

	var bySender []struct {
		Sender string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Scopes(r.sinceScope(since)).
		Select("sender, COUNT(id) as count").
		Group("sender").
		Scan(&bySender).Error; err != nil {
		return nil, err
	}
	for _, row := range bySender {
		switch entity.MessageSender(row.Sender) {
		case entity.MessageSenderUser:
			stats.UserMessages = row.Count
		case entity.MessageSenderAssistant:
			stats.AssistantMessages = row.Count
		}
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("created_at >= ?", todayStart).
		Count(&stats.MessagesToday).Error; err != nil {
		return nil, err
	}

	var avg *float64
	err := r.db.WithContext(ctx).Raw(`
		SELECT AVG(msg_count) FROM (
			SELECT session_id, COUNT(*) as msg_count
			FROM messages
			GROUP BY session_id
		) session_counts
	`).Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AvgPerSession = math.Round(*avg*10) / 10
	}

	return stats, nil
}

func (r *StatsRepositoryImpl) SessionStats(ctx context.Context, since *time.Time) (*contract.SessionStats, error) {
	stats := &contract.SessionStats{}

	if err := r.db.WithContext(ctx).Model(&model.ChatSession{}).Scopes(r.sinceScope(since)).
		Count(&stats.TotalSessions).Error; err != nil {
		return nil, err
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("created_at >= ?", todayStart).
		Distinct("session_id").Count(&stats.ActiveToday).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&model.ChatSession{}).Scopes(r.sinceScope(since)).
		Distinct("user_id").Count(&stats.UniqueOwners).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *StatsRepositoryImpl) DailyActivity(ctx context.Context, days int) ([]contract.DailyActivity, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
	dayExpr := r.dayExpr()

	var messageRows []struct {
		Day   string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Select(dayExpr+" as day, COUNT(id) as count").
		Where("created_at >= ?", cutoff).
		Group("day").
		Order("day ASC").
		Scan(&messageRows).Error
	if err != nil {
		return nil, err
	}

	var userRows []struct {
		Day   string
		Count int64
	}
	err = r.db.WithContext(ctx).Table("messages").
		Select(dayExpr + " as day, COUNT(DISTINCT COALESCE(CAST(auth_user_id AS TEXT), CAST(session_id AS TEXT))) as count").
		Where("created_at >= ? AND sender = ?", cutoff, string(entity.MessageSenderUser)).
		Group("day").
		Order("day ASC").
		Scan(&userRows).Error
	if err != nil {
		return nil, err
	}

	activeByDay := make(map[string]int64, len(userRows))
	for _, row := range userRows {
		activeByDay[row.Day] = row.Count
	}

	activity := make([]contract.DailyActivity, len(messageRows))
	for i, row := range messageRows {
		activity[i] = contract.DailyActivity{
			Day:          row.Day,
			MessageCount: row.Count,
			ActiveUsers:  activeByDay[row.Day],
		}
	}
	return activity, nil
}
