package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/access"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/observability"
	"github.com/noah-isme/edutask-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService governs the assignment lifecycle: start, submit, review.
type AssignmentService interface {
	Get(ctx context.Context, actor access.Actor, id uint) (dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, actor access.Actor, studentID uint) ([]dto.StudentAssignmentResponse, error)
	Start(ctx context.Context, actor access.Actor, assignmentID uint) (dto.AssignmentResponse, error)
	Submit(ctx context.Context, actor access.Actor, assignmentID uint, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.SubmitResponse, error)
	Review(ctx context.Context, actor access.Actor, taskID, studentID uint, payload dto.ReviewRequest) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	uploader    FileUploader
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment lifecycle service.
func NewAssignmentService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, validate *validator.Validate, uploader FileUploader, events EventPublisher, logger zerolog.Logger) AssignmentService {
	if events == nil {
		events = NewNopEventPublisher()
	}

	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		validator:   validate,
		uploader:    uploader,
		events:      events,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Get(ctx context.Context, actor access.Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !access.CanViewAssignment(actor, assignment.StudentID, assignment.Task.CreatedBy) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, actor access.Actor, studentID uint) ([]dto.StudentAssignmentResponse, error) {
	if !actor.IsAdmin() && !(actor.Role == access.RoleStudent && actor.ID == studentID) {
		return nil, ErrForbidden
	}

	assignments, err := s.assignments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentAssignmentResponseSlice(assignments, s.now().UTC()), nil
}

// Start moves a not_started assignment to in_progress. Starting twice is a
// no-op; starting after submission fails.
func (s *assignmentService) Start(ctx context.Context, actor access.Actor, assignmentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !access.CanSubmit(actor, assignment.StudentID) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	switch assignment.Status {
	case models.AssignmentStatusInProgress:
		return dto.NewAssignmentResponse(assignment), nil
	case models.AssignmentStatusSubmitted, models.AssignmentStatusReviewed:
		return dto.AssignmentResponse{}, ErrAlreadySubmitted
	}

	assignment.Status = models.AssignmentStatusInProgress
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment started")

	return dto.NewAssignmentResponse(assignment), nil
}

// Submit upserts the submission for the assignment and moves it to
// submitted, regardless of whether it was not_started or in_progress.
// Resubmission before review overwrites; after review it fails.
func (s *assignmentService) Submit(ctx context.Context, actor access.Actor, assignmentID uint, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.SubmitResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/edutask-api/internal/service/assignment")
	ctx, span := tracer.Start(ctx, "assignment.submit")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("assignment.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.SubmitResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.SubmitResponse{}, err
	}

	if !access.CanSubmit(actor, assignment.StudentID) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SubmitResponse{}, ErrForbidden
	}

	if assignment.IsReviewed() {
		span.SetStatus(codes.Error, "already_reviewed")
		return dto.SubmitResponse{}, ErrAlreadyReviewed
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		span.SetStatus(codes.Error, "empty_content")
		return dto.SubmitResponse{}, ErrEmptyContent
	}

	attachmentURL := ""
	if file != nil {
		attachmentURL, err = s.uploadAttachment(ctx, file)
		if err != nil {
			span.RecordError(err)
			return dto.SubmitResponse{}, err
		}
	}

	submission, err := s.submissions.GetByAssignment(ctx, assignment.ID)
	switch {
	case err == nil:
		submission.Content = content
		if attachmentURL != "" {
			submission.AttachmentURL = attachmentURL
		}
		if err := s.submissions.Update(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.SubmitResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID:  assignment.ID,
			StudentID:     assignment.StudentID,
			Content:       content,
			AttachmentURL: attachmentURL,
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.SubmitResponse{}, err
		}
	default:
		span.RecordError(err)
		return dto.SubmitResponse{}, err
	}

	assignment.Status = models.AssignmentStatusSubmitted
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		span.RecordError(err)
		return dto.SubmitResponse{}, err
	}

	observability.SubmissionsReceived().Inc()
	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("submission_id", submission.ID).
		Msg("submission stored")

	return dto.SubmitResponse{
		Submission: dto.NewSubmissionResponse(submission),
		Assignment: dto.NewAssignmentResponse(assignment),
	}, nil
}

// Review records the teacher's verdict. The assignment must be submitted or
// already reviewed; re-review overwrites feedback and score.
func (s *assignmentService) Review(ctx context.Context, actor access.Actor, taskID, studentID uint, payload dto.ReviewRequest) (dto.AssignmentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/edutask-api/internal/service/assignment")
	ctx, span := tracer.Start(ctx, "assignment.review")
	span.SetAttributes(
		attribute.Int64("assignment.task_id", int64(taskID)),
		attribute.Int64("assignment.student_id", int64(studentID)),
		attribute.Int64("assignment.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	if !access.CanReview(actor, assignment.Task.CreatedBy) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssignmentResponse{}, ErrForbidden
	}

	if !assignment.IsSubmitted() {
		span.SetStatus(codes.Error, "not_submitted")
		return dto.AssignmentResponse{}, ErrNotSubmitted
	}

	reviewedAt := s.now().UTC()
	assignment.Status = models.AssignmentStatusReviewed
	assignment.Feedback = strings.TrimSpace(payload.Feedback)
	assignment.RewardScore = payload.RewardScore
	assignment.ReviewedAt = &reviewedAt

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_update_failed")
		return dto.AssignmentResponse{}, err
	}

	observability.ReviewsCompleted().Inc()

	event := WorkflowEvent{
		Type:         EventAssignmentReviewed,
		TaskID:       assignment.TaskID,
		ClassID:      assignment.Task.ClassID,
		StudentID:    assignment.StudentID,
		AssignmentID: assignment.ID,
		RewardScore:  assignment.RewardScore,
		OccurredAt:   reviewedAt,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to publish review event")
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("reward_score", assignment.RewardScore).
		Msg("assignment reviewed")

	span.SetAttributes(attribute.Int("assignment.reward_score", assignment.RewardScore))

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateAttachmentType(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

func validateAttachmentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "image/png", "image/jpeg", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
