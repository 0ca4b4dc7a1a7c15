package dto

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// AssignmentResponse is the serialized representation of one student's
// binding to a task.
type AssignmentResponse struct {
	ID          uint       `json:"id"`
	TaskID      uint       `json:"task_id"`
	StudentID   uint       `json:"student_id"`
	Status      string     `json:"status"`
	Feedback    string     `json:"feedback,omitempty"`
	RewardScore int        `json:"reward_score"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReviewRequest carries a teacher's verdict on a submitted assignment.
type ReviewRequest struct {
	Feedback    string `json:"feedback" validate:"omitempty,max=4000"`
	RewardScore int    `json:"reward_score" validate:"gte=0,lte=5"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		TaskID:      model.TaskID,
		StudentID:   model.StudentID,
		Status:      model.Status,
		Feedback:    model.Feedback,
		RewardScore: model.RewardScore,
		ReviewedAt:  model.ReviewedAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// StudentAssignmentResponse pairs an assignment with its task summary for
// the student's own listing.
type StudentAssignmentResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	TaskTitle  string             `json:"task_title"`
	DueDate    *time.Time         `json:"due_date,omitempty"`
	PastDue    bool               `json:"past_due"`
}

// NewStudentAssignmentResponseSlice converts assignments with preloaded
// tasks into the student listing shape. PastDue is evaluated against the
// given reference time.
func NewStudentAssignmentResponseSlice(assignments []models.Assignment, now time.Time) []StudentAssignmentResponse {
	responses := make([]StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, StudentAssignmentResponse{
			Assignment: NewAssignmentResponse(assignment),
			TaskTitle:  assignment.Task.Title,
			DueDate:    assignment.Task.DueDate,
			PastDue:    assignment.Task.IsPastDue(now),
		})
	}

	return responses
}
