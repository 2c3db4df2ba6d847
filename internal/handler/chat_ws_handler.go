package handler

import (
	"os"
	"time"

	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	internalWS "ai-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	anonCookieName       = "chat_user_id"
	anonCookieMaxAge     = 365 * 24 * time.Hour
	defaultContextWindow = 20
)

// ChatWsHandler upgrades chat connections. Anonymous visitors are allowed;
// they are identified by the chat_user_id cookie instead of a JWT.
type ChatWsHandler struct {
	hub        *internalWS.Hub
	pipeline   *internalWS.MessagePipeline
	resolver   service.SessionResolver
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewChatWsHandler(
	hub *internalWS.Hub,
	pipeline *internalWS.MessagePipeline,
	resolver service.SessionResolver,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) *ChatWsHandler {
	return &ChatWsHandler{
		hub:        hub,
		pipeline:   pipeline,
		resolver:   resolver,
		uowFactory: uowFactory,
		logger:     log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *ChatWsHandler) ServeWs(c *fiber.Ctx) error {
	// Token source priority: query param (browsers can't set headers on a
	// websocket handshake), then Authorization header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	var (
		identity      string
		authUserID    *uuid.UUID
		contextWindow = defaultContextWindow
	)

	if tokenStr != "" {
		userID, err := h.parseAccessToken(tokenStr)
		if err != nil {
			h.logger.Warn("ChatWsHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		identity = userID.String()
		authUserID = &userID

		uow := h.uowFactory.NewUnitOfWork(c.UserContext())
		user, err := uow.UserRepository().FindOne(c.UserContext(), specification.ByID{ID: userID})
		if err == nil && user != nil && user.ContextWindowSize > 0 {
			contextWindow = user.ContextWindowSize
		}
	} else {
		identity = c.Cookies(anonCookieName)
		if identity == "" {
			identity = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     anonCookieName,
				Value:    identity,
				Expires:  time.Now().Add(anonCookieMaxAge),
				HTTPOnly: true,
				SameSite: "Lax",
			})
		}
	}

	var explicitSession *uuid.UUID
	if raw := c.Query("session_id"); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session_id"})
		}
		explicitSession = &sessionID
	}

	session, err := h.resolver.Resolve(c.UserContext(), identity, explicitSession)
	if err != nil {
		if err == service.ErrSessionNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat session not found"})
		}
		h.logger.Error("ChatWsHandler", "Failed to resolve session", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve chat session"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		sessionID := session.Id
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatWsHandler", "Starting chat session", map[string]interface{}{
				"session_id": sessionID, "identity": identity,
			})
			client := internalWS.NewClient(h.hub, conn, sessionID, identity, authUserID, contextWindow)
			client.Serve(h.pipeline)
			h.logger.Info("ChatWsHandler", "Chat session ended", map[string]interface{}{
				"session_id": sessionID, "identity": identity,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *ChatWsHandler) parseAccessToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	if tokenType, _ := claims["type"].(string); tokenType != "" && tokenType != "access" {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return uuid.Parse(userIDStr)
}

// RegisterRoutes mounts the websocket endpoint.
func (h *ChatWsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/chat", h.ServeWs)
}
