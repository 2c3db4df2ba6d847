package websocket

import (
	"encoding/json"
	"strings"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/llm"
)

// MessagePipeline runs one inbound chat frame end to end: quota check,
// persistence, fan-out, and the streamed AI reply.
type MessagePipeline struct {
	chatService  service.IChatService
	limitService service.IMessageLimitService
	llmProvider  llm.LLMProvider
	hub          *Hub
	log          logger.ILogger
}

func NewMessagePipeline(
	chatService service.IChatService,
	limitService service.IMessageLimitService,
	llmProvider llm.LLMProvider,
	hub *Hub,
	log logger.ILogger,
) *MessagePipeline {
	return &MessagePipeline{
		chatService:  chatService,
		limitService: limitService,
		llmProvider:  llmProvider,
		hub:          hub,
		log:          log,
	}
}

func (p *MessagePipeline) broadcast(c *Client, frame *dto.WsFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	p.hub.Broadcast(c.SessionID, payload)
}

func (p *MessagePipeline) setTyping(c *Client, typing bool) {
	p.broadcast(c, &dto.WsFrame{
		Type:      dto.WsFrameTyping,
		SessionId: c.SessionID,
		IsTyping:  typing,
	})
}

// Handle processes one incoming frame. It blocks until the AI stream
// finishes, so a client's messages are answered strictly in order.
func (p *MessagePipeline) Handle(c *Client, frame *dto.WsIncomingFrame) {
	if frame.Type != dto.WsFrameMessage {
		return
	}

	content := strings.TrimSpace(frame.Content)
	if content == "" {
		c.SendFrame(&dto.WsFrame{Type: dto.WsFrameError, Error: "message content is empty"})
		return
	}

	ctx := c.Context()

	limits, err := p.limitService.Check(ctx, c.Identity)
	if err != nil {
		p.log.Error("pipeline", "Limit check failed", map[string]interface{}{
			"identity": c.Identity, "error": err.Error(),
		})
		c.SendFrame(&dto.WsFrame{Type: dto.WsFrameError, Error: "could not verify message limit"})
		return
	}
	if !limits.CanSend {
		// Nothing is persisted for an over-limit message.
		c.SendFrame(&dto.WsFrame{
			Type:      dto.WsFrameSystem,
			SessionId: c.SessionID,
			Event:     "limit_reached",
			Limits:    limits,
		})
		return
	}

	session, err := p.chatService.GetOwnedSession(ctx, c.Identity, c.SessionID)
	if err != nil {
		c.SendFrame(&dto.WsFrame{Type: dto.WsFrameError, Error: "chat session unavailable"})
		return
	}

	userMsg, err := p.chatService.PersistUserMessage(ctx, session, c.Identity, c.AuthUserID, content)
	if err != nil {
		p.log.Error("pipeline", "Failed to persist user message", map[string]interface{}{
			"session_id": c.SessionID, "error": err.Error(),
		})
		c.SendFrame(&dto.WsFrame{Type: dto.WsFrameError, Error: "failed to save message"})
		return
	}

	p.broadcast(c, &dto.WsFrame{
		Type:      dto.WsFrameMessage,
		SessionId: c.SessionID,
		Message: &dto.ChatMessageResponse{
			Id:        userMsg.Id,
			SessionId: userMsg.SessionId,
			Content:   userMsg.Content,
			Sender:    string(userMsg.Sender),
			CreatedAt: userMsg.CreatedAt,
		},
	})

	p.streamReply(c)
}

// streamReply feeds the recent history to the AI and relays chunks to
// every connection on the session. The assistant message is persisted
// only once the stream completes cleanly.
func (p *MessagePipeline) streamReply(c *Client) {
	ctx := c.Context()

	p.setTyping(c, true)
	defer p.setTyping(c, false)

	history, err := p.chatService.RecentMessages(ctx, c.SessionID, c.ContextWindow)
	if err != nil {
		p.log.Error("pipeline", "Failed to load history", map[string]interface{}{
			"session_id": c.SessionID, "error": err.Error(),
		})
		p.broadcast(c, &dto.WsFrame{Type: dto.WsFrameError, SessionId: c.SessionID, Error: "failed to load chat history"})
		return
	}

	prompt := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Sender == "assistant" {
			role = "assistant"
		}
		prompt = append(prompt, llm.Message{Role: role, Content: msg.Content})
	}

	acc := NewStreamAccumulator()
	err = p.llmProvider.ChatStream(ctx, prompt, func(chunk string) error {
		if err := acc.Append(chunk); err != nil {
			return err
		}
		p.broadcast(c, &dto.WsFrame{
			Type:      dto.WsFrameAiStream,
			SessionId: c.SessionID,
			Content:   chunk,
		})
		return nil
	})
	if err != nil {
		p.log.Error("pipeline", "AI stream failed", map[string]interface{}{
			"session_id": c.SessionID, "error": err.Error(),
		})
		p.broadcast(c, &dto.WsFrame{
			Type:      dto.WsFrameError,
			SessionId: c.SessionID,
			Error:     "the assistant is unavailable right now",
		})
		return
	}

	reply := acc.Finalize()
	if reply == "" {
		return
	}

	aiMsg, err := p.chatService.PersistAssistantMessage(ctx, c.SessionID, reply)
	if err != nil {
		p.log.Error("pipeline", "Failed to persist assistant message", map[string]interface{}{
			"session_id": c.SessionID, "error": err.Error(),
		})
		p.broadcast(c, &dto.WsFrame{Type: dto.WsFrameError, SessionId: c.SessionID, Error: "failed to save assistant reply"})
		return
	}

	p.broadcast(c, &dto.WsFrame{
		Type:      dto.WsFrameAiStreamEnd,
		SessionId: c.SessionID,
		Message: &dto.ChatMessageResponse{
			Id:        aiMsg.Id,
			SessionId: aiMsg.SessionId,
			Content:   aiMsg.Content,
			Sender:    string(aiMsg.Sender),
			CreatedAt: aiMsg.CreatedAt,
		},
	})
}
