package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/utils"
)

// TaskHandler wires task catalog and fan-out HTTP routes.
type TaskHandler struct {
	service service.TaskService
	logger  zerolog.Logger
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(service service.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// RegisterClassRoutes attaches the class-scoped task endpoints.
func (h *TaskHandler) RegisterClassRoutes(router fiber.Router) {
	router.Post("/:classId/tasks", h.create)
	router.Get("/:classId/tasks", h.list)
}

// RegisterTaskRoutes attaches the task-scoped endpoints.
func (h *TaskHandler) RegisterTaskRoutes(router fiber.Router) {
	router.Get("/:id", h.get)
}

// RegisterDraftRoute attaches the AI drafting endpoint.
func (h *TaskHandler) RegisterDraftRoute(router fiber.Router) {
	router.Post("", h.draft)
}

func (h *TaskHandler) create(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TaskCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), actorFromContext(c), classID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", result)
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tasks, err := h.service.ListByClass(c.Context(), actorFromContext(c), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

func (h *TaskHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task retrieved", task)
}

func (h *TaskHandler) draft(c *fiber.Ctx) error {
	var payload dto.TaskDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.Draft(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task drafted", draft)
}

func (h *TaskHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "operation not permitted")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrEmptyStudentSelection):
		return utils.SendError(c, fiber.StatusBadRequest, "student selection must not be empty")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
