package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportFixture(t *testing.T) (IReportService, *gochannel.GoChannel, *gorm.DB) {
	t.Helper()
	uowFactory, db := newTestFactory(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	return NewReportService(uowFactory, pubSub, nopLogger{}), pubSub, db
}

func TestSendNowPublishesRequest(t *testing.T) {
	svc, pubSub, _ := newReportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, ReportRequestedTopic)
	require.NoError(t, err)

	require.NoError(t, svc.SendNow(ctx, []string{"ops@example.com"}))

	select {
	case msg := <-messages:
		var payload dto.ReportRequestedMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, []string{"ops@example.com"}, payload.Recipients)
		assert.Equal(t, "manual", payload.Source)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no report request was published")
	}
}

func TestSendNowRequiresRecipients(t *testing.T) {
	svc, _, _ := newReportFixture(t)
	assert.Error(t, svc.SendNow(context.Background(), nil))
}

func TestNextRunComputation(t *testing.T) {
	// Wednesday 2026-01-07 10:30 UTC.
	now := time.Date(2026, 1, 7, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule entity.ReportSchedule
		want     time.Time
		wantOk   bool
	}{
		{
			name:     "daily later today",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeDaily, Hour: 18, Minute: 0},
			want:     time.Date(2026, 1, 7, 18, 0, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "daily already passed rolls to tomorrow",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeDaily, Hour: 9, Minute: 0},
			want:     time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "daily at the current instant rolls to tomorrow",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeDaily, Hour: 10, Minute: 30},
			want:     time.Date(2026, 1, 8, 10, 30, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "weekly later this week",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeWeekly, DayOfWeek: "fri", Hour: 9, Minute: 15},
			want:     time.Date(2026, 1, 9, 9, 15, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "weekly earlier today wraps a full week",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeWeekly, DayOfWeek: "wed", Hour: 9, Minute: 0},
			want:     time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "weekly on an earlier weekday wraps",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeWeekly, DayOfWeek: "mon", Hour: 9, Minute: 0},
			want:     time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "weekly with unknown day falls back to monday",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeWeekly, DayOfWeek: "someday", Hour: 9, Minute: 0},
			want:     time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC),
			wantOk:   true,
		},
		{
			name:     "disabled type never fires",
			schedule: entity.ReportSchedule{Enabled: true, ScheduleType: entity.ScheduleTypeDisabled, Hour: 9},
			wantOk:   false,
		},
		{
			name:     "disabled flag never fires",
			schedule: entity.ReportSchedule{Enabled: false, ScheduleType: entity.ScheduleTypeDaily, Hour: 9},
			wantOk:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.schedule.NextRun(now)
			require.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	svc, _, _ := newReportFixture(t)
	ctx := context.Background()

	// A fresh database yields the disabled weekly default.
	schedule, err := svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.False(t, schedule.Enabled)
	assert.Equal(t, entity.ScheduleTypeWeekly, schedule.ScheduleType)
	assert.Equal(t, "mon", schedule.DayOfWeek)
	assert.Equal(t, 9, schedule.Hour)
	assert.Equal(t, 0, schedule.Minute)
	assert.Nil(t, schedule.NextRun)
	assert.Nil(t, schedule.LastSentAt)

	enabled := true
	daily := entity.ScheduleTypeDaily
	hour := 18
	updated, err := svc.UpdateSchedule(ctx, &dto.UpdateReportScheduleRequest{
		Enabled:      &enabled,
		ScheduleType: &daily,
		Hour:         &hour,
		Recipients:   []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)
	assert.True(t, updated.Enabled)
	assert.Equal(t, entity.ScheduleTypeDaily, updated.ScheduleType)
	assert.Equal(t, 18, updated.Hour)
	// Untouched fields keep their stored values.
	assert.Equal(t, "mon", updated.DayOfWeek)
	assert.Equal(t, 0, updated.Minute)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, updated.Recipients)
	require.NotNil(t, updated.NextRun)
	assert.Equal(t, 18, updated.NextRun.Hour())

	reloaded, err := svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated.ScheduleType, reloaded.ScheduleType)
	assert.Equal(t, updated.Recipients, reloaded.Recipients)
	assert.True(t, reloaded.Enabled)
}

func TestScheduleCountsSubscribedUsers(t *testing.T) {
	svc, _, db := newReportFixture(t)
	ctx := context.Background()

	seedUser(t, db, "admin", func(u *model.User) { u.ReceiveReports = true })
	seedUser(t, db, "user", func(u *model.User) { u.ReceiveReports = true })
	seedUser(t, db, "user", nil)
	// Blocked subscribers don't count.
	seedUser(t, db, "user", func(u *model.User) {
		u.ReceiveReports = true
		u.IsBlocked = true
	})

	schedule, err := svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), schedule.SubscribedUsersCount)
}

func TestSubscribersListing(t *testing.T) {
	svc, _, db := newReportFixture(t)
	ctx := context.Background()

	seedUser(t, db, "admin", func(u *model.User) {
		email := "alpha@example.com"
		u.Email = &email
		u.ReceiveReports = true
	})
	seedUser(t, db, "user", func(u *model.User) {
		email := "zulu@example.com"
		u.Email = &email
		u.ReceiveReports = true
	})
	seedUser(t, db, "user", nil)

	res, err := svc.Subscribers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Len(t, res.Subscribers, 2)
	assert.Equal(t, "alpha@example.com", *res.Subscribers[0].Email)
	assert.Equal(t, "zulu@example.com", *res.Subscribers[1].Email)
	assert.Equal(t, "admin", res.Subscribers[0].Role)
}

func TestResolveRecipientsPrefersSubscribers(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	ctx := context.Background()

	seedUser(t, db, "admin", func(u *model.User) {
		email := "subscriber@example.com"
		u.Email = &email
		u.ReceiveReports = true
	})

	uow := uowFactory.NewUnitOfWork(ctx)
	schedule := &entity.ReportSchedule{Recipients: "fallback@example.com"}

	recipients, err := resolveReportRecipients(ctx, uow, schedule)
	require.NoError(t, err)
	assert.Equal(t, []string{"subscriber@example.com"}, recipients)
}

func TestResolveRecipientsFallsBackToConfiguredList(t *testing.T) {
	uowFactory, db := newTestFactory(t)
	ctx := context.Background()

	// Nobody opted in.
	seedUser(t, db, "user", nil)

	uow := uowFactory.NewUnitOfWork(ctx)
	schedule := &entity.ReportSchedule{Recipients: "a@example.com, b@example.com"}

	recipients, err := resolveReportRecipients(ctx, uow, schedule)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, recipients)
}

func TestSchedulerTickPublishesWhenDue(t *testing.T) {
	svc, pubSub, db := newReportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedUser(t, db, "admin", func(u *model.User) {
		email := "subscriber@example.com"
		u.Email = &email
		u.ReceiveReports = true
	})

	messages, err := pubSub.Subscribe(ctx, ReportRequestedTopic)
	require.NoError(t, err)

	// A daily trigger at the current minute, configured an hour ago, is due.
	due := time.Now().UTC().Truncate(time.Minute)
	enabled := true
	daily := entity.ScheduleTypeDaily
	hour, minute := due.Hour(), due.Minute()
	_, err = svc.UpdateSchedule(ctx, &dto.UpdateReportScheduleRequest{
		Enabled:      &enabled,
		ScheduleType: &daily,
		Hour:         &hour,
		Minute:       &minute,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.ReportSchedule{}).Where("id = ?", 1).
		UpdateColumn("updated_at", due.Add(-time.Hour)).Error)

	svc.(*reportService).tick(ctx)

	select {
	case msg := <-messages:
		var payload dto.ReportRequestedMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "schedule", payload.Source)
		assert.Equal(t, []string{"subscriber@example.com"}, payload.Recipients)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("a due schedule did not publish a report request")
	}

	// The send is stamped, so the next trigger is in the future.
	var row model.ReportSchedule
	require.NoError(t, db.First(&row, 1).Error)
	require.NotNil(t, row.LastSentAt)
}

func TestSchedulerTickSkipsWhenNotDue(t *testing.T) {
	svc, pubSub, _ := newReportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, ReportRequestedTopic)
	require.NoError(t, err)

	// Enabling now arms the schedule for the next trigger, which is in the
	// future, so nothing fires.
	enabled := true
	daily := entity.ScheduleTypeDaily
	_, err = svc.UpdateSchedule(ctx, &dto.UpdateReportScheduleRequest{
		Enabled:      &enabled,
		ScheduleType: &daily,
		Recipients:   []string{"ops@example.com"},
	})
	require.NoError(t, err)

	svc.(*reportService).tick(ctx)

	select {
	case <-messages:
		t.Fatal("a schedule that is not due published a report request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "a@example.com", want: []string{"a@example.com"}},
		{name: "trims whitespace", raw: " a@example.com , b@example.com ", want: []string{"a@example.com", "b@example.com"}},
		{name: "skips empties", raw: "a@example.com,,b@example.com,", want: []string{"a@example.com", "b@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitRecipients(tt.raw))
		})
	}
}
