package controller

import (
	"errors"
	"os"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const anonIdentityCookie = "chat_user_id"

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Limits(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService  service.IChatService
	limitService service.IMessageLimitService
	cfg          *config.Config
}

func NewChatController(chatService service.IChatService, limitService service.IMessageLimitService, cfg *config.Config) IChatController {
	return &chatController{
		chatService:  chatService,
		limitService: limitService,
		cfg:          cfg,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Get("/sessions", c.ListSessions)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:id", c.GetSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Get("/history", c.History)
	h.Get("/limits", c.Limits)
}

// identity resolves who is talking: a registered user via Bearer token, or
// an anonymous visitor via the chat_user_id cookie (minted on first contact).
func (c *chatController) identity(ctx *fiber.Ctx) (string, error) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token, err := jwt.Parse(authHeader[7:], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return "", fiber.ErrUnauthorized
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return "", fiber.ErrUnauthorized
		}
		if tokenType, _ := claims["type"].(string); tokenType != "" && tokenType != "access" {
			return "", fiber.ErrUnauthorized
		}
		userID, _ := claims["user_id"].(string)
		if _, err := uuid.Parse(userID); err != nil {
			return "", fiber.ErrUnauthorized
		}
		return userID, nil
	}

	identity := ctx.Cookies(anonIdentityCookie)
	if identity == "" {
		identity = uuid.NewString()
		ctx.Cookie(&fiber.Cookie{
			Name:     anonIdentityCookie,
			Value:    identity,
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
	return identity, nil
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	res, err := c.chatService.ListSessions(ctx.UserContext(), identity)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	if c.cfg.App.SingleSessionMode {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Multiple sessions are disabled"))
	}

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.chatService.CreateSession(ctx.UserContext(), identity, req.Title)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	sessionID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	res, err := c.chatService.GetSessionDetail(ctx.UserContext(), identity, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	sessionID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	if err := c.chatService.DeleteSession(ctx.UserContext(), identity, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Chat session deleted", nil))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	limit := ctx.QueryInt("limit", c.cfg.Limits.HistoryLimit)
	if limit <= 0 || limit > 200 {
		limit = c.cfg.Limits.HistoryLimit
	}

	res, err := c.chatService.History(ctx.UserContext(), identity, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat history", res))
}

func (c *chatController) Limits(ctx *fiber.Ctx) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	res, err := c.limitService.Check(ctx.UserContext(), identity)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Message limits", res))
}
