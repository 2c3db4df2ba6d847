package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageSender string

const (
	MessageSenderUser      MessageSender = "user"
	MessageSenderAssistant MessageSender = "assistant"
	MessageSenderSystem    MessageSender = "system"
)

// Message is immutable once created; there is no edit operation.
type Message struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	AuthUserId  *uuid.UUID // set only for registered senders
	Content     string
	Sender      MessageSender
	MessageType string
	Meta        map[string]any
	CreatedAt   time.Time
}
