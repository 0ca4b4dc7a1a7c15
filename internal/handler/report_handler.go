package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/utils"
)

// ReportHandler wires the class report endpoint.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the report endpoints to the class group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/:classId/report", h.classReport)
}

func (h *ReportHandler) classReport(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rng := c.Query("range", dto.RangeAll)

	report, err := h.service.BuildClassReport(c.Context(), actorFromContext(c), classID, rng)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "report generated", report)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "operation not permitted")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrInvalidRange):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report range")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
