package controller

import (
	"errors"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
}

type adminController struct {
	adminService  service.IAdminService
	reportService service.IReportService
}

func NewAdminController(adminService service.IAdminService, reportService service.IReportService) IAdminController {
	return &adminController{
		adminService:  adminService,
		reportService: reportService,
	}
}

// adminOnly sits behind JwtMiddleware and gates on the role claim.
func adminOnly(ctx *fiber.Ctx) error {
	if role, _ := ctx.Locals("role").(string); role != "admin" {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Admin access required"))
	}
	return ctx.Next()
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", serverutils.JwtMiddleware, adminOnly)

	h.Get("/users", c.ListUsers)
	h.Get("/users/:id", c.GetUser)
	h.Patch("/users/:id/role", c.UpdateRole)
	h.Patch("/users/:id/block", c.SetBlocked)
	h.Patch("/users/:id/message-limit", c.SetMessageLimit)
	h.Patch("/users/:id/report-subscription", c.SetReportSubscription)
	h.Delete("/users/:id", c.DeleteUser)
	h.Get("/users/:id/messages", c.UserMessages)

	h.Get("/stats", c.Stats)
	h.Get("/stats/daily-activity", c.DailyActivity)

	h.Get("/logs", c.ListLogs)
	h.Get("/logs/:id", c.GetLog)

	h.Post("/reports/send", c.SendReport)
	h.Get("/reports/schedule", c.GetReportSchedule)
	h.Put("/reports/schedule", c.UpdateReportSchedule)
	h.Get("/reports/subscribers", c.ReportSubscribers)
}

func actorID(ctx *fiber.Ctx) (uuid.UUID, error) {
	actorStr, _ := ctx.Locals("user_id").(string)
	return uuid.Parse(actorStr)
}

func adminErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSelfRoleChange), errors.Is(err, service.ErrSelfBlock):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidUserRole), errors.Is(err, service.ErrNegativeUserLimit):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (c *adminController) ListUsers(ctx *fiber.Ctx) error {
	var req dto.AdminUserListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.adminService.ListUsers(ctx.UserContext(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Users", res))
}

func (c *adminController) GetUser(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	res, err := c.adminService.GetUser(ctx.UserContext(), userID)
	if err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("User detail", res))
}

func (c *adminController) UpdateRole(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	var req dto.AdminUpdateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.adminService.UpdateRole(ctx.UserContext(), actor, userID, req.Role); err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Role updated", nil))
}

func (c *adminController) SetBlocked(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	var req dto.AdminBlockRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := c.adminService.SetBlocked(ctx.UserContext(), actor, userID, req.Blocked); err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	message := "User unblocked"
	if req.Blocked {
		message = "User blocked"
	}
	return ctx.JSON(serverutils.SuccessResponse[any](message, nil))
}

func (c *adminController) SetMessageLimit(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	var req dto.AdminMessageLimitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.adminService.SetMessageLimit(ctx.UserContext(), userID, req.MessageLimit); err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Message limit updated", nil))
}

func (c *adminController) SetReportSubscription(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	var req dto.AdminReportSubscriptionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := c.adminService.SetReportSubscription(ctx.UserContext(), userID, req.Subscribed); err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	message := "Report subscription removed"
	if req.Subscribed {
		message = "Report subscription added"
	}
	return ctx.JSON(serverutils.SuccessResponse[any](message, nil))
}

func (c *adminController) DeleteUser(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	if err := c.adminService.DeleteUser(ctx.UserContext(), actor, userID); err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User deleted", nil))
}

func (c *adminController) UserMessages(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	var req dto.AdminUserMessagesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.adminService.UserMessages(ctx.UserContext(), userID, &req)
	if err != nil {
		status := adminErrorStatus(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("User messages", res))
}

func (c *adminController) Stats(ctx *fiber.Ctx) error {
	var req dto.StatsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.adminService.StatsSummary(ctx.UserContext(), req.Days)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage statistics", res))
}

func (c *adminController) DailyActivity(ctx *fiber.Ctx) error {
	var req dto.StatsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.adminService.DailyActivity(ctx.UserContext(), req.Days)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Daily activity", res))
}

func (c *adminController) ListLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.adminService.GetLogs(ctx.UserContext(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Logs", res))
}

func (c *adminController) GetLog(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetLogById(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log entry", res))
}

func (c *adminController) SendReport(ctx *fiber.Ctx) error {
	var req dto.SendReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.reportService.SendNow(ctx.UserContext(), req.Recipients); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Report queued", nil))
}

func (c *adminController) GetReportSchedule(ctx *fiber.Ctx) error {
	res, err := c.reportService.GetSchedule(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Report schedule", res))
}

func (c *adminController) UpdateReportSchedule(ctx *fiber.Ctx) error {
	var req dto.UpdateReportScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.reportService.UpdateSchedule(ctx.UserContext(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Report schedule updated", res))
}

func (c *adminController) ReportSubscribers(ctx *fiber.Ctx) error {
	res, err := c.reportService.Subscribers(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Report subscribers", res))
}
