package controller

import (
	"errors"
	"fmt"
	"net/url"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Providers(ctx *fiber.Ctx) error
	Redirect(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service service.IOAuthService
	cfg     *config.Config
}

func NewOAuthController(service service.IOAuthService, cfg *config.Config) IOAuthController {
	return &oauthController{service: service, cfg: cfg}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get("/providers", c.Providers)
	h.Get("/:provider", c.Redirect)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Providers(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Available OAuth providers", c.service.Providers()))
}

func (c *oauthController) Redirect(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	authURL, err := c.service.GetLoginURL(provider)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedProvider) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	// API clients get the URL as JSON; browsers are redirected directly.
	if ctx.Get("Accept") == "application/json" {
		return ctx.JSON(serverutils.SuccessResponse("OAuth redirect", fiber.Map{"auth_url": authURL}))
	}
	return ctx.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if errMsg := ctx.Query("error"); errMsg != "" {
		return c.redirectWithError(ctx, errMsg)
	}
	if code == "" || state == "" {
		return c.redirectWithError(ctx, "missing code or state")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, code, state, ctx.IP(), ctx.Get("User-Agent"))
	if err != nil {
		return c.redirectWithError(ctx, err.Error())
	}

	// Hand the tokens to the frontend via the redirect fragment-free query;
	// the SPA exchanges them for its own storage.
	target := fmt.Sprintf("%s/auth/callback?access_token=%s&refresh_token=%s",
		c.cfg.App.ClientURL,
		url.QueryEscape(res.Tokens.AccessToken),
		url.QueryEscape(res.Tokens.RefreshToken),
	)
	return ctx.Redirect(target, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) redirectWithError(ctx *fiber.Ctx, message string) error {
	target := fmt.Sprintf("%s/auth/callback?error=%s", c.cfg.App.ClientURL, url.QueryEscape(message))
	return ctx.Redirect(target, fiber.StatusTemporaryRedirect)
}
