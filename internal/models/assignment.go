package models

import "time"

// Assignment lifecycle statuses. Status only moves forward; reviewed
// assignments may be re-reviewed but never regress.
const (
	AssignmentStatusNotStarted = "not_started"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusSubmitted  = "submitted"
	AssignmentStatusReviewed   = "reviewed"
)

// MaxRewardScore bounds the score a teacher can award at review time.
const MaxRewardScore = 5

// Assignment binds a task to one student. Exactly one row exists per
// (task, student) pair; the unique index backs fan-out idempotency.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TaskID      uint       `gorm:"not null;uniqueIndex:idx_task_student" json:"task_id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_task_student" json:"student_id"`
	Status      string     `gorm:"size:32;not null;default:not_started" json:"status"`
	Feedback    string     `gorm:"type:text" json:"feedback"`
	RewardScore int        `gorm:"not null;default:0" json:"reward_score"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Task        Task       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task,omitempty"`
}

// IsReviewed reports whether the assignment carries a final review.
func (a Assignment) IsReviewed() bool {
	return a.Status == AssignmentStatusReviewed
}

// IsSubmitted reports whether the assignment has reached at least the
// submitted state.
func (a Assignment) IsSubmitted() bool {
	return a.Status == AssignmentStatusSubmitted || a.Status == AssignmentStatusReviewed
}
