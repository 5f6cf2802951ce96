package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"smartharvester/internal/models"
	"smartharvester/internal/services"
	"smartharvester/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type PlantingHandler struct {
	PlantingService *services.PlantingService
}

func NewPlantingHandler(plantingService *services.PlantingService) *PlantingHandler {
	return &PlantingHandler{
		PlantingService: plantingService,
	}
}

func (h *PlantingHandler) Register(app *fiber.App) {
	gr := app.Group("tracker/api/v1/plantings")

	gr.Post("/", h.CreatePlanting)
	gr.Put("/:id", h.UpdatePlanting)
	gr.Delete("/:id", h.DeletePlanting)
	gr.Get("/overview", h.GetOverview)
	gr.Post("/reminders", h.SweepReminders)
	gr.Post("/migrate", h.MigrateSessionPlantings)
}

func (h *PlantingHandler) CreatePlanting(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req services.PlantingInput
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("failed to parse planting body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("BAD_REQUEST", "Invalid request body"))
	}
	req.UserID = userID

	planting, err := h.PlantingService.Create(c.Context(), req)
	if err != nil {
		return plantingError(c, userID, err, "failed to create planting")
	}
	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(planting))
}

func (h *PlantingHandler) UpdatePlanting(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req services.PlantingInput
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("failed to parse planting body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("BAD_REQUEST", "Invalid request body"))
	}
	req.UserID = userID
	req.PlantingID = c.Params("id")

	planting, err := h.PlantingService.Update(c.Context(), req)
	if err != nil {
		return plantingError(c, userID, err, "failed to update planting")
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(planting))
}

func (h *PlantingHandler) DeletePlanting(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	err := h.PlantingService.Delete(c.Context(), userID, c.Query("username"), c.Params("id"))
	if err != nil {
		return plantingError(c, userID, err, "failed to delete planting")
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"deleted": c.Params("id")}))
}

func (h *PlantingHandler) GetOverview(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	overview, err := h.PlantingService.Overview(c.Context(), userID, c.Query("username"))
	if err != nil {
		return plantingError(c, userID, err, "failed to build overview")
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(overview))
}

func (h *PlantingHandler) SweepReminders(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	emitted, err := h.PlantingService.EmitUpcomingReminders(c.Context(), userID, c.Query("username"))
	if err != nil {
		return plantingError(c, userID, err, "failed to emit reminders")
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"emitted": emitted}))
}

func (h *PlantingHandler) MigrateSessionPlantings(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	migrated, err := h.PlantingService.MigrateSessionPlantings(c.Context(), userID, c.Query("username"))
	if err != nil {
		return plantingError(c, userID, err, "failed to migrate session plantings")
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{"migrated": migrated}))
}

// plantingError maps domain sentinels onto HTTP statuses.
func plantingError(c fiber.Ctx, userID string, err error, logMsg string) error {
	slog.Error(logMsg, "user_id", userID, "error", err)

	switch {
	case errors.Is(err, models.ErrCropNotFound):
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNKNOWN_CROP", "Crop is not in the knowledge base"))
	case errors.Is(err, models.ErrInvalidDate):
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_DATE", "Planting date must be YYYY-MM-DD"))
	case errors.Is(err, models.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Planting not found"))
	case errors.Is(err, models.ErrStoreUnavailable):
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("STORE_UNAVAILABLE", "Storage is temporarily unavailable"))
	default:
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Something went wrong"))
	}
}
