package models

import (
	"time"

	"gorm.io/datatypes"
)

// Differentiation captures the three tiers of a differentiated task.
type Differentiation struct {
	Easier   string `json:"easier"`
	Standard string `json:"standard"`
	Stretch  string `json:"stretch"`
}

// Task creation modes.
const (
	TaskCreationManual   = "manual"
	TaskCreationTemplate = "template"
	TaskCreationAI       = "ai"
)

// Task is a unit of work defined by a teacher for a class. Tasks are
// immutable after creation and are never hard-deleted.
type Task struct {
	ID              uint                                `gorm:"primaryKey" json:"id"`
	ClassID         uint                                `gorm:"not null;index" json:"class_id"`
	CreatedBy       uint                                `gorm:"not null" json:"created_by"`
	Title           string                              `gorm:"size:255;not null" json:"title"`
	Instructions    string                              `gorm:"type:text;not null" json:"instructions"`
	Steps           datatypes.JSONSlice[string]         `json:"steps"`
	Differentiation datatypes.JSONType[Differentiation] `json:"differentiation"`
	SuccessCriteria datatypes.JSONSlice[string]         `json:"success_criteria"`
	DueDate         *time.Time                          `json:"due_date"`
	CreationMode    string                              `gorm:"size:16;not null;default:manual" json:"creation_mode"`
	TargetSkill     string                              `gorm:"size:128" json:"target_skill"`
	TargetLevel     string                              `gorm:"size:64" json:"target_level"`
	CreatedAt       time.Time                           `json:"created_at"`
	Assignments     []Assignment                        `json:"assignments,omitempty"`
}

// IsPastDue reports whether the optional deadline has already passed.
func (t Task) IsPastDue(reference time.Time) bool {
	return t.DueDate != nil && reference.After(*t.DueDate)
}
