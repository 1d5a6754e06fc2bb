package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
)

type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	Update(ctx context.Context, lesson *model.Lesson) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error)
	FindBySlug(ctx context.Context, courseID uuid.UUID, slug string) (*model.Lesson, error)
	// CreateCompletion inserts the completion fact. The unique index on
	// (user_id, lesson_id) makes a second insert fail with
	// gorm.ErrDuplicatedKey.
	CreateCompletion(ctx context.Context, completion *model.LessonCompletion) error
	CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error)
	CountCompletions(ctx context.Context, userID uuid.UUID) (int64, error)
}

type lessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepository) Update(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

func (r *lessonRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) FindBySlug(ctx context.Context, courseID uuid.UUID, slug string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND slug = ?", courseID, slug).
		First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) CreateCompletion(ctx context.Context, completion *model.LessonCompletion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *lessonRepository) CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.user_id = ? AND lessons.course_id = ?", userID, courseID).
		Pluck("lesson_completions.lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *lessonRepository) CountCompletions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LessonCompletion{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
