package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/edutask-api/internal/models"
)

// Assignment policies accepted when creating a task.
const (
	PolicyWholeClass = "whole_class"
	PolicySelected   = "selected"
)

// DifferentiationPayload mirrors the three task tiers on the wire.
type DifferentiationPayload struct {
	Easier   string `json:"easier"`
	Standard string `json:"standard"`
	Stretch  string `json:"stretch"`
}

// TaskCreateRequest describes the payload for creating a task and fanning it
// out to students.
type TaskCreateRequest struct {
	Title           string                 `json:"title" validate:"required,min=3"`
	Instructions    string                 `json:"instructions" validate:"required,min=3"`
	Steps           []string               `json:"steps" validate:"omitempty,dive,min=1"`
	Differentiation DifferentiationPayload `json:"differentiation"`
	SuccessCriteria []string               `json:"success_criteria" validate:"omitempty,dive,min=1"`
	DueDate         *string                `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreationMode    string                 `json:"creation_mode" validate:"omitempty,oneof=manual template ai"`
	TargetSkill     string                 `json:"target_skill" validate:"omitempty,max=128"`
	TargetLevel     string                 `json:"target_level" validate:"omitempty,max=64"`
	AssignTo        string                 `json:"assign_to" validate:"required,oneof=whole_class selected"`
	StudentIDs      []uint                 `json:"student_ids" validate:"omitempty,dive,gt=0"`
}

// TaskResponse is the serialized representation returned to API clients.
type TaskResponse struct {
	ID              uint                   `json:"id"`
	ClassID         uint                   `json:"class_id"`
	CreatedBy       uint                   `json:"created_by"`
	Title           string                 `json:"title"`
	Instructions    string                 `json:"instructions"`
	Steps           []string               `json:"steps"`
	Differentiation DifferentiationPayload `json:"differentiation"`
	SuccessCriteria []string               `json:"success_criteria"`
	DueDate         *time.Time             `json:"due_date,omitempty"`
	CreationMode    string                 `json:"creation_mode"`
	TargetSkill     string                 `json:"target_skill,omitempty"`
	TargetLevel     string                 `json:"target_level,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// TaskCreateResponse bundles the created task with its fanned-out assignments.
type TaskCreateResponse struct {
	Task        TaskResponse         `json:"task"`
	Assignments []AssignmentResponse `json:"assignments"`
}

// NewTaskResponse converts a model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	diff := model.Differentiation.Data()

	return TaskResponse{
		ID:           model.ID,
		ClassID:      model.ClassID,
		CreatedBy:    model.CreatedBy,
		Title:        model.Title,
		Instructions: model.Instructions,
		Steps:        []string(model.Steps),
		Differentiation: DifferentiationPayload{
			Easier:   diff.Easier,
			Standard: diff.Standard,
			Stretch:  diff.Stretch,
		},
		SuccessCriteria: []string(model.SuccessCriteria),
		DueDate:         model.DueDate,
		CreationMode:    model.CreationMode,
		TargetSkill:     model.TargetSkill,
		TargetLevel:     model.TargetLevel,
		CreatedAt:       model.CreatedAt,
	}
}

// NewTaskResponseSlice converts a slice of models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}

	return responses
}

// ToModel builds the persistence model for a create request. Fan-out policy
// fields are consumed by the service, not stored.
func (r TaskCreateRequest) ToModel(classID, createdBy uint, dueDate *time.Time) models.Task {
	mode := r.CreationMode
	if mode == "" {
		mode = models.TaskCreationManual
	}

	return models.Task{
		ClassID:      classID,
		CreatedBy:    createdBy,
		Title:        r.Title,
		Instructions: r.Instructions,
		Steps:        datatypes.NewJSONSlice(r.Steps),
		Differentiation: datatypes.NewJSONType(models.Differentiation{
			Easier:   r.Differentiation.Easier,
			Standard: r.Differentiation.Standard,
			Stretch:  r.Differentiation.Stretch,
		}),
		SuccessCriteria: datatypes.NewJSONSlice(r.SuccessCriteria),
		DueDate:         dueDate,
		CreationMode:    mode,
		TargetSkill:     r.TargetSkill,
		TargetLevel:     r.TargetLevel,
	}
}
