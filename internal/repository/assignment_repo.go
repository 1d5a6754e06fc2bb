package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	Update(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	FindPublished(ctx context.Context, courseID *uuid.UUID) ([]model.Assignment, error)
	FindAll(ctx context.Context) ([]model.Assignment, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("id = ?", id).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) FindPublished(ctx context.Context, courseID *uuid.UUID) ([]model.Assignment, error) {
	var assignments []model.Assignment
	q := r.db.WithContext(ctx).
		Preload("Course").
		Where("is_published = ?", true).
		Order("created_at DESC")
	if courseID != nil {
		q = q.Where("course_id = ?", *courseID)
	}
	if err := q.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) FindAll(ctx context.Context) ([]model.Assignment, error) {
	var assignments []model.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
