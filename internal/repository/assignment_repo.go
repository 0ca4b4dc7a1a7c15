package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Assignment, error)
	ListByTaskIDs(ctx context.Context, taskIDs []uint, since *time.Time) ([]models.Assignment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Task").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Task").
		Where("task_id = ? AND student_id = ?", taskID, studentID).
		First(&assignment).Error
	if err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByTaskIDs(ctx context.Context, taskIDs []uint, since *time.Time) ([]models.Assignment, error) {
	if len(taskIDs) == 0 {
		return []models.Assignment{}, nil
	}

	query := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var assignments []models.Assignment
	if err := query.Order("created_at ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Task").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}
