package websocket

import (
	"fmt"
	"testing"

	"ai-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }
func (quietLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (quietLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

func newTestClient(hub *Hub, sessionID uuid.UUID, identity string) *Client {
	return NewClient(hub, nil, sessionID, identity, nil, 20)
}

func TestHubBroadcastReachesSessionClients(t *testing.T) {
	hub := NewHub(quietLogger{})
	sessionA := uuid.New()
	sessionB := uuid.New()

	tab1 := newTestClient(hub, sessionA, "anon-1")
	tab2 := newTestClient(hub, sessionA, "anon-1")
	other := newTestClient(hub, sessionB, "anon-2")

	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	assert.Equal(t, 2, hub.SessionClientCount(sessionA))
	assert.Equal(t, 1, hub.SessionClientCount(sessionB))

	hub.Broadcast(sessionA, []byte(`{"type":"message"}`))

	assert.Equal(t, `{"type":"message"}`, string(<-tab1.Send))
	assert.Equal(t, `{"type":"message"}`, string(<-tab2.Send))
	select {
	case payload := <-other.Send:
		t.Fatalf("client on another session received %q", payload)
	default:
	}
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(quietLogger{})
	sessionID := uuid.New()
	client := newTestClient(hub, sessionID, "anon-1")

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)

	assert.Zero(t, hub.SessionClientCount(sessionID))

	// The send channel was closed exactly once.
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubEvictsSlowClient(t *testing.T) {
	hub := NewHub(quietLogger{})
	sessionID := uuid.New()
	slow := newTestClient(hub, sessionID, "slow")
	healthy := newTestClient(hub, sessionID, "healthy")

	hub.Register(slow)
	hub.Register(healthy)

	// Jam the slow client's buffer.
	for i := 0; i < cap(slow.Send); i++ {
		require.True(t, slow.trySend([]byte(fmt.Sprintf("filler %d", i))))
	}

	hub.Broadcast(sessionID, []byte("fresh"))

	// The slow client is gone, the healthy one still receives.
	assert.Equal(t, 1, hub.SessionClientCount(sessionID))
	assert.Equal(t, "fresh", string(<-healthy.Send))
}

func TestClientSendFrameAfterCloseIsSafe(t *testing.T) {
	hub := NewHub(quietLogger{})
	client := newTestClient(hub, uuid.New(), "anon-1")

	hub.Register(client)
	hub.Unregister(client)

	// Must not panic on the closed channel.
	assert.False(t, client.trySend([]byte("late")))
}
