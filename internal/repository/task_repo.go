package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/models"
)

// TaskRepository defines persistence operations for tasks and their fan-out.
type TaskRepository interface {
	// CreateWithAssignments persists the task and one assignment per student
	// in a single transaction. Existing (task, student) rows are left
	// untouched, which makes retried fan-out idempotent.
	CreateWithAssignments(ctx context.Context, task *models.Task, studentIDs []uint) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Task, error)
	ListByClass(ctx context.Context, classID uint, since *time.Time) ([]models.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) CreateWithAssignments(ctx context.Context, task *models.Task, studentIDs []uint) ([]models.Assignment, error) {
	var assignments []models.Assignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.ID == 0 {
			if err := tx.Create(task).Error; err != nil {
				return err
			}
		}

		for _, studentID := range studentIDs {
			assignment := models.Assignment{
				TaskID:    task.ID,
				StudentID: studentID,
				Status:    models.AssignmentStatusNotStarted,
			}
			err := tx.Where(models.Assignment{TaskID: task.ID, StudentID: studentID}).
				FirstOrCreate(&assignment).Error
			if err != nil {
				return err
			}
			assignments = append(assignments, assignment)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (r *taskRepository) ListByClass(ctx context.Context, classID uint, since *time.Time) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Where("class_id = ?", classID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}
