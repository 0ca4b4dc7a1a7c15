package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/access"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/observability"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/pkg/ai"
)

// TaskService exposes the task catalog and assignment fan-out use cases.
type TaskService interface {
	Create(ctx context.Context, actor access.Actor, classID uint, payload dto.TaskCreateRequest) (dto.TaskCreateResponse, error)
	Get(ctx context.Context, actor access.Actor, id uint) (dto.TaskResponse, error)
	ListByClass(ctx context.Context, actor access.Actor, classID uint) ([]dto.TaskResponse, error)
	Draft(ctx context.Context, actor access.Actor, payload dto.TaskDraftRequest) (dto.TaskDraftResponse, error)
}

type taskService struct {
	tasks     repository.TaskRepository
	classes   repository.ClassRepository
	validator *validator.Validate
	events    EventPublisher
	drafter   ai.Drafter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTaskService builds a new task service.
func NewTaskService(tasks repository.TaskRepository, classes repository.ClassRepository, validate *validator.Validate, events EventPublisher, drafter ai.Drafter, logger zerolog.Logger) TaskService {
	if events == nil {
		events = NewNopEventPublisher()
	}

	return &taskService{
		tasks:     tasks,
		classes:   classes,
		validator: validate,
		events:    events,
		drafter:   drafter,
		logger:    logger.With().Str("component", "task_service").Logger(),
		now:       time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, actor access.Actor, classID uint, payload dto.TaskCreateRequest) (dto.TaskCreateResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/edutask-api/internal/service/task")
	ctx, span := tracer.Start(ctx, "task.create")
	span.SetAttributes(
		attribute.Int64("task.class_id", int64(classID)),
		attribute.Int64("task.actor_id", int64(actor.ID)),
		attribute.String("task.policy", payload.AssignTo),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.TaskCreateResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "class_not_found")
			return dto.TaskCreateResponse{}, ErrClassNotFound
		}
		span.RecordError(err)
		return dto.TaskCreateResponse{}, err
	}

	if !access.CanCreateTask(actor, class.OwnerID) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.TaskCreateResponse{}, ErrForbidden
	}

	var dueDate *time.Time
	if payload.DueDate != nil && *payload.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.TaskCreateResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		dueDate = &parsed
	}

	targets, err := s.resolveTargets(ctx, classID, payload)
	if err != nil {
		span.RecordError(err)
		return dto.TaskCreateResponse{}, err
	}

	task := payload.ToModel(classID, actor.ID, dueDate)
	assignments, err := s.tasks.CreateWithAssignments(ctx, &task, targets)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fan_out_failed")
		return dto.TaskCreateResponse{}, err
	}

	observability.TasksCreated().WithLabelValues(payload.AssignTo).Inc()
	observability.AssignmentsFannedOut().Add(float64(len(assignments)))

	occurredAt := s.now().UTC()
	for _, assignment := range assignments {
		event := WorkflowEvent{
			Type:         EventAssignmentAssigned,
			TaskID:       task.ID,
			ClassID:      classID,
			StudentID:    assignment.StudentID,
			AssignmentID: assignment.ID,
			OccurredAt:   occurredAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to publish assignment event")
		}
	}

	s.logger.Info().
		Uint("task_id", task.ID).
		Uint("class_id", classID).
		Int("assignments", len(assignments)).
		Str("policy", payload.AssignTo).
		Msg("task created and fanned out")

	span.SetAttributes(attribute.Int("task.assignments", len(assignments)))

	return dto.TaskCreateResponse{
		Task:        dto.NewTaskResponse(task),
		Assignments: dto.NewAssignmentResponseSlice(assignments),
	}, nil
}

// resolveTargets maps the fan-out policy onto a deduplicated list of class
// members. Non-member ids in a targeted selection are dropped, not errored.
func (s *taskService) resolveTargets(ctx context.Context, classID uint, payload dto.TaskCreateRequest) ([]uint, error) {
	members, err := s.classes.MembersOf(ctx, classID)
	if err != nil {
		return nil, err
	}

	if payload.AssignTo == dto.PolicyWholeClass {
		return members, nil
	}

	if len(payload.StudentIDs) == 0 {
		return nil, ErrEmptyStudentSelection
	}

	memberSet := make(map[uint]struct{}, len(members))
	for _, id := range members {
		memberSet[id] = struct{}{}
	}

	seen := make(map[uint]struct{}, len(payload.StudentIDs))
	targets := make([]uint, 0, len(payload.StudentIDs))
	dropped := 0
	for _, id := range payload.StudentIDs {
		if _, ok := memberSet[id]; !ok {
			dropped++
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}

	if dropped > 0 {
		s.logger.Warn().Uint("class_id", classID).Int("dropped", dropped).Msg("non-member student ids dropped from selection")
	}

	return targets, nil
}

func (s *taskService) Get(ctx context.Context, actor access.Actor, id uint) (dto.TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, task.ClassID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	if actor.Role == access.RoleStudent || access.CanCreateTask(actor, class.OwnerID) {
		return dto.NewTaskResponse(task), nil
	}

	return dto.TaskResponse{}, ErrForbidden
}

func (s *taskService) ListByClass(ctx context.Context, actor access.Actor, classID uint) ([]dto.TaskResponse, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	if !access.CanCreateTask(actor, class.OwnerID) {
		return nil, ErrForbidden
	}

	tasks, err := s.tasks.ListByClass(ctx, classID, nil)
	if err != nil {
		return nil, err
	}

	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) Draft(ctx context.Context, actor access.Actor, payload dto.TaskDraftRequest) (dto.TaskDraftResponse, error) {
	if actor.Role != access.RoleTeacher && !actor.IsAdmin() {
		return dto.TaskDraftResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskDraftResponse{}, err
	}

	if s.drafter == nil {
		return dto.TaskDraftResponse{}, fmt.Errorf("task drafting is not configured")
	}

	draft, err := s.drafter.Draft(ctx, ai.DraftInput{
		Prompt:      payload.Prompt,
		TargetSkill: payload.TargetSkill,
		TargetLevel: payload.TargetLevel,
	})
	if err != nil {
		return dto.TaskDraftResponse{}, err
	}

	return dto.TaskDraftResponse{
		Title:        draft.Title,
		Instructions: draft.Instructions,
		Steps:        draft.Steps,
		Differentiation: dto.DifferentiationPayload{
			Easier:   draft.Easier,
			Standard: draft.Standard,
			Stretch:  draft.Stretch,
		},
		SuccessCriteria: draft.SuccessCriteria,
		Provider:        draft.Provider,
	}, nil
}
