package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/models"
)

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	GetByAssignment(ctx context.Context, assignmentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByAssignment(ctx context.Context, assignmentID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}
