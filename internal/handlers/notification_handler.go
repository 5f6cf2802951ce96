package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"smartharvester/internal/models"
	"smartharvester/internal/services"
	"smartharvester/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type NotificationHandler struct {
	Engine *services.NotificationEngine
	Users  services.UserStore
}

func NewNotificationHandler(engine *services.NotificationEngine, users services.UserStore) *NotificationHandler {
	return &NotificationHandler{
		Engine: engine,
		Users:  users,
	}
}

func (h *NotificationHandler) Register(app *fiber.App) {
	gr := app.Group("tracker/api/v1/notifications")

	gr.Get("/", h.ListNotifications)
	gr.Put("/read-all", h.MarkAllRead)
	gr.Put("/:id/read", h.MarkRead)
	gr.Get("/preference", h.GetPreference)
	gr.Put("/preference", h.UpdatePreference)
}

func (h *NotificationHandler) ListNotifications(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.Engine.List(c.Context(), userID, limit, unreadOnly)
	if err != nil {
		slog.Error("failed to list notifications", "user_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Failed to list notifications"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(notifications))
}

func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	if err := h.Engine.MarkRead(c.Context(), userID, c.Params("id")); err != nil {
		slog.Error("failed to mark notification read", "user_id", userID, "notification_id", c.Params("id"), "error", err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Notification not found"))
		}
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Failed to mark notification read"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"read": c.Params("id")}))
}

func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	marked, err := h.Engine.MarkAllRead(c.Context(), userID)
	if err != nil {
		slog.Error("failed to mark all notifications read", "user_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Failed to mark notifications read"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"marked": marked}))
}

func (h *NotificationHandler) GetPreference(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	enabled := h.Users.GetNotificationPreference(c.Context(), userID)
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"notifications_enabled": enabled}))
}

func (h *NotificationHandler) UpdatePreference(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req struct {
		Enabled bool `json:"notifications_enabled"`
	}
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("failed to parse preference body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("BAD_REQUEST", "Invalid request body"))
	}

	if err := h.Users.UpdateNotificationPreference(c.Context(), userID, req.Enabled); err != nil {
		slog.Error("failed to update notification preference", "user_id", userID, "error", err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "User not found"))
		}
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Failed to update preference"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"notifications_enabled": req.Enabled}))
}
