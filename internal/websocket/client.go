package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-chat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// SessionID is the chat session this connection is bound to.
	SessionID uuid.UUID

	// Identity owns the session: a registered user's uuid string or the
	// anonymous cookie id.
	Identity string

	// AuthUserID is set only for registered users.
	AuthUserID *uuid.UUID

	// ContextWindow is how many recent messages feed the AI.
	ContextWindow int

	// Buffered channel of outbound messages.
	Send chan []byte

	// ctx is cancelled when the connection goes away; the AI stream hangs
	// off it so a disconnect aborts the upstream request.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID uuid.UUID, identity string, authUserID *uuid.UUID, contextWindow int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Hub:           hub,
		Conn:          conn,
		SessionID:     sessionID,
		Identity:      identity,
		AuthUserID:    authUserID,
		ContextWindow: contextWindow,
		Send:          make(chan []byte, 256),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// trySend queues a frame without blocking; false means the buffer is full.
func (c *Client) trySend(payload []byte) bool {
	defer func() {
		// Send may already be closed by a concurrent eviction.
		_ = recover()
	}()
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// SendFrame marshals and queues a frame for this client only.
func (c *Client) SendFrame(frame *dto.WsFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.trySend(payload)
}

// readPump pumps frames from the websocket connection into the pipeline.
// Frames are handled sequentially: the next one is read only after the
// previous one (including its AI stream) finishes.
func (c *Client) readPump(pipeline *MessagePipeline) {
	defer func() {
		c.cancel()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"identity": c.Identity, "error": err.Error(),
				})
			}
			break
		}

		var frame dto.WsIncomingFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.SendFrame(&dto.WsFrame{Type: dto.WsFrameError, Error: "malformed frame"})
			continue
		}

		pipeline.Handle(c, &frame)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve registers the client and runs both pumps; it returns when the
// connection is gone.
func (c *Client) Serve(pipeline *MessagePipeline) {
	c.Hub.Register(c)
	go c.writePump()
	c.readPump(pipeline)
}
