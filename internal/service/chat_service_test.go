package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDefaultSessionIsIdempotent(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	first, err := svc.GetOrCreateDefaultSession(ctx, "anon-cookie-1")
	require.NoError(t, err)
	second, err := svc.GetOrCreateDefaultSession(ctx, "anon-cookie-1")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.True(t, second.IsDefault())

	// A different identity gets its own default session.
	other, err := svc.GetOrCreateDefaultSession(ctx, "anon-cookie-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.Id, other.Id)
}

func TestPersistUserMessageTitlesSession(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	t.Run("short first message becomes the title", func(t *testing.T) {
		session, err := svc.GetOrCreateDefaultSession(ctx, "titles-1")
		require.NoError(t, err)

		_, err = svc.PersistUserMessage(ctx, session, "titles-1", nil, "Hello there")
		require.NoError(t, err)
		assert.Equal(t, "Hello there", session.Title)
	})

	t.Run("long first message is truncated", func(t *testing.T) {
		session, err := svc.GetOrCreateDefaultSession(ctx, "titles-2")
		require.NoError(t, err)

		long := strings.Repeat("a", 80)
		_, err = svc.PersistUserMessage(ctx, session, "titles-2", nil, long)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 50)+"...", session.Title)
	})

	t.Run("second message never retitles", func(t *testing.T) {
		session, err := svc.GetOrCreateDefaultSession(ctx, "titles-3")
		require.NoError(t, err)

		_, err = svc.PersistUserMessage(ctx, session, "titles-3", nil, "first")
		require.NoError(t, err)
		_, err = svc.PersistUserMessage(ctx, session, "titles-3", nil, "second")
		require.NoError(t, err)
		assert.Equal(t, "first", session.Title)
	})
}

func TestRecentMessagesChronological(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	session, err := svc.GetOrCreateDefaultSession(ctx, "recent-1")
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		_, err := svc.PersistUserMessage(ctx, session, "recent-1", nil, content)
		require.NoError(t, err)
		_, err = svc.PersistAssistantMessage(ctx, session.Id, "re: "+content)
		require.NoError(t, err)
	}

	messages, err := svc.RecentMessages(ctx, session.Id, 4)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	// Newest four, oldest first.
	assert.Equal(t, "four", messages[0].Content)
	assert.Equal(t, "re: four", messages[1].Content)
	assert.Equal(t, "five", messages[2].Content)
	assert.Equal(t, "re: five", messages[3].Content)
}

func TestSessionOwnership(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "owner-a", "Project notes")
	require.NoError(t, err)

	_, err = svc.GetOwnedSession(ctx, "owner-b", created.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = svc.DeleteSession(ctx, "owner-b", created.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.DeleteSession(ctx, "owner-a", created.Id))

	_, err = svc.GetOwnedSession(ctx, "owner-a", created.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessionsOrdering(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, "lister", "first")
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, "lister", "second")
	require.NoError(t, err)

	// Activity on the older session bumps it to the top.
	session, err := svc.GetOwnedSession(ctx, "lister", first.Id)
	require.NoError(t, err)
	_, err = svc.PersistUserMessage(ctx, session, "lister", nil, "ping")
	require.NoError(t, err)

	sessions, err := svc.ListSessions(ctx, "lister")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.Id, sessions[0].Id)
	assert.Equal(t, second.Id, sessions[1].Id)
}

func TestHistoryUsesDefaultSession(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	session, err := svc.GetOrCreateDefaultSession(ctx, "history-1")
	require.NoError(t, err)
	_, err = svc.PersistUserMessage(ctx, session, "history-1", nil, "hi")
	require.NoError(t, err)
	_, err = svc.PersistAssistantMessage(ctx, session.Id, "hello")
	require.NoError(t, err)

	history, err := svc.History(ctx, "history-1", 50)
	require.NoError(t, err)
	assert.Equal(t, session.Id, history.SessionId)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hi", history.Messages[0].Content)
	assert.Equal(t, "user", history.Messages[0].Sender)
	assert.Equal(t, "hello", history.Messages[1].Content)
	assert.Equal(t, "assistant", history.Messages[1].Sender)
}

func TestPersistUserMessageRecordsAuthor(t *testing.T) {
	uowFactory, _ := newTestFactory(t)
	limits := NewMessageLimitService(uowFactory, nil)
	svc := NewChatService(uowFactory, limits)
	ctx := context.Background()

	userId := uuid.New()
	session, err := svc.GetOrCreateDefaultSession(ctx, userId.String())
	require.NoError(t, err)

	msg, err := svc.PersistUserMessage(ctx, session, userId.String(), &userId, "attributed")
	require.NoError(t, err)
	require.NotNil(t, msg.AuthUserId)
	assert.Equal(t, userId, *msg.AuthUserId)
}
