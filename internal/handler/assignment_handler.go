package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/utils"
)

// AssignmentHandler wires assignment lifecycle HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the assignment-scoped endpoints. Start and submit are
// student actions; the service layer still checks ownership.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{}))
	router.Post("/:id/start", middleware.WithAuth(h.start, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/:id/submit", middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
}

// RegisterReviewRoute attaches the review endpoint under the task group.
func (h *AssignmentHandler) RegisterReviewRoute(router fiber.Router) {
	router.Post("/:taskId/review/:studentId", h.review)
}

// RegisterStudentRoutes attaches the per-student listing endpoint.
func (h *AssignmentHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:studentId/assignments", h.listForStudent)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) start(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Start(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment started", assignment)
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.SubmitRequest{Content: c.FormValue("content")}

	file, err := c.FormFile("attachment")
	if err != nil {
		file = nil
	}

	result, err := h.service.Submit(c.Context(), actorFromContext(c), id, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "work submitted", result)
}

func (h *AssignmentHandler) review(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Review(c.Context(), actorFromContext(c), taskID, studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment reviewed", assignment)
}

func (h *AssignmentHandler) listForStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListForStudent(c.Context(), actorFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, assignments, "assignments retrieved", fiber.Map{"count": len(assignments)})
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "operation not permitted")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrEmptyContent):
		return utils.SendError(c, fiber.StatusBadRequest, "submission content must not be empty")
	case errors.Is(err, service.ErrNotSubmitted):
		return utils.SendError(c, fiber.StatusConflict, "assignment has not been submitted")
	case errors.Is(err, service.ErrAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, "assignment has already been reviewed")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "assignment has already been submitted")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
