package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/models"
)

// ClassRepository resolves classes and their membership.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	MembersOf(ctx context.Context, classID uint) ([]uint, error)
	Create(ctx context.Context, class *models.Class) error
	AddMember(ctx context.Context, membership *models.ClassMembership) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates a GORM-backed class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) MembersOf(ctx context.Context, classID uint) ([]uint, error) {
	var studentIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.ClassMembership{}).
		Where("class_id = ?", classID).
		Order("student_id ASC").
		Pluck("student_id", &studentIDs).Error
	if err != nil {
		return nil, err
	}

	return studentIDs, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) AddMember(ctx context.Context, membership *models.ClassMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}
