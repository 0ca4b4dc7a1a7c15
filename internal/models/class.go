package models

import "time"

// Class represents a teaching group owned by a single teacher.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassMembership links a student to a class. One row per (class, student).
type ClassMembership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_class_student" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_class_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
