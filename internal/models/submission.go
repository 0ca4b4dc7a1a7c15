package models

import "time"

// Submission holds the student's authored work for one assignment. At most
// one row exists per assignment; resubmission before review overwrites it.
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AssignmentID  uint      `gorm:"not null;uniqueIndex" json:"assignment_id"`
	StudentID     uint      `gorm:"not null;index" json:"student_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	AttachmentURL string    `gorm:"size:512" json:"attachment_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
