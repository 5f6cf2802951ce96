package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"smartharvester/internal/event"
	"smartharvester/internal/models"
	"smartharvester/internal/services"
	"smartharvester/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type DigestHandler struct {
	Digest    *services.DigestService
	Publisher *event.DigestPublisher
}

func NewDigestHandler(digest *services.DigestService, publisher *event.DigestPublisher) *DigestHandler {
	return &DigestHandler{
		Digest:    digest,
		Publisher: publisher,
	}
}

func (h *DigestHandler) Register(app *fiber.App) {
	gr := app.Group("tracker/api/v1/digest")

	gr.Post("/run", h.RunDigest)
	gr.Get("/health", h.PublisherHealth)
}

// RunDigest triggers one digest scan outside the schedule. The scheduled
// job and a manual trigger never overlap.
func (h *DigestHandler) RunDigest(c fiber.Ctx) error {
	report, err := h.Digest.Run(c.Context())
	if err != nil {
		slog.Error("manual digest run failed", "error", err)
		switch {
		case errors.Is(err, services.ErrScanInProgress):
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("SCAN_IN_PROGRESS", "A digest scan is already running"))
		case errors.Is(err, models.ErrConfigMissing):
			return c.Status(http.StatusServiceUnavailable).JSON(
				utils.CreateErrorResponse("NOT_CONFIGURED", "Digest publisher is not configured"))
		default:
			return c.Status(http.StatusInternalServerError).JSON(
				utils.CreateErrorResponse("INTERNAL_SERVER_ERROR", "Digest scan failed"))
		}
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(report))
}

func (h *DigestHandler) PublisherHealth(c fiber.Ctx) error {
	if h.Publisher == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("NOT_CONFIGURED", "Digest publisher is not configured"))
	}
	status := h.Publisher.HealthCheck()
	code := http.StatusOK
	if !status.IsHealthy {
		code = http.StatusServiceUnavailable
	}
	return c.Status(code).JSON(utils.CreateSuccessResponse(status))
}
