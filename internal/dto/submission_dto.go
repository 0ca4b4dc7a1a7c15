package dto

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// SubmitRequest carries a student's work for one assignment.
type SubmitRequest struct {
	Content string `form:"content" json:"content" validate:"required,min=1"`
}

// SubmissionResponse is the serialized representation returned to API clients.
type SubmissionResponse struct {
	ID            uint      `json:"id"`
	AssignmentID  uint      `json:"assignment_id"`
	StudentID     uint      `json:"student_id"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubmitResponse bundles the stored submission with the updated assignment.
type SubmitResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Assignment AssignmentResponse `json:"assignment"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		StudentID:     model.StudentID,
		Content:       model.Content,
		AttachmentURL: model.AttachmentURL,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
