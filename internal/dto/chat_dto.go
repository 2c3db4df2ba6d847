package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type ChatSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId uuid.UUID `json:"session_id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" | "assistant" | "system"
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetailResponse struct {
	Session  ChatSessionResponse   `json:"session"`
	Messages []ChatMessageResponse `json:"messages"`
}

type ChatHistoryResponse struct {
	SessionId uuid.UUID             `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
}

// MessageLimitResponse mirrors the limit service result for /chat/limits and
// the limit_reached system frame.
type MessageLimitResponse struct {
	Role                 string `json:"role"`
	Limit                *int   `json:"limit"` // nil means unlimited
	Used                 int    `json:"used"`
	Remaining            *int   `json:"remaining"`
	IsUnlimited          bool   `json:"is_unlimited"`
	CanSend              bool   `json:"can_send"`
	RequiresVerification bool   `json:"requires_verification,omitempty"`
}

// --- WebSocket frames ---

const (
	WsFrameMessage     = "message"
	WsFrameTyping      = "typing"
	WsFrameAiStream    = "ai_stream"
	WsFrameAiStreamEnd = "ai_stream_end"
	WsFrameSystem      = "system"
	WsFrameError       = "error"
)

// WsIncomingFrame is what a connected client sends.
type WsIncomingFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WsFrame is the single outgoing frame shape; fields are populated per type.
type WsFrame struct {
	Type      string                `json:"type"`
	SessionId uuid.UUID             `json:"session_id,omitempty"`
	Message   *ChatMessageResponse  `json:"message,omitempty"`   // message
	Content   string                `json:"content,omitempty"`   // ai_stream chunks
	IsTyping  bool                  `json:"is_typing,omitempty"` // typing
	Event     string                `json:"event,omitempty"`     // system sub-type, e.g. "limit_reached"
	Limits    *MessageLimitResponse `json:"limits,omitempty"`
	Error     string                `json:"error,omitempty"`
}
