package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Submission, error)
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]model.Submission, error)
	LatestForAssignment(ctx context.Context, userID, assignmentID uuid.UUID) (*model.Submission, error)
	// Grade applies score, feedback, grader and timestamp together with
	// the status change in a single update.
	Grade(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	BestScore(ctx context.Context, userID uuid.UUID) (float64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var submission model.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("User").
		Where("id = ?", id).
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Submission, error) {
	var submissions []model.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]model.Submission, error) {
	var submissions []model.Submission
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) LatestForAssignment(ctx context.Context, userID, assignmentID uuid.UUID) (*model.Submission, error) {
	var submission model.Submission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		Order("submitted_at DESC").
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) Grade(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *submissionRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) BestScore(ctx context.Context, userID uuid.UUID) (float64, error) {
	var best float64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("COALESCE(MAX(score), 0)").
		Where("user_id = ? AND status = ?", userID, model.SubmissionGraded).
		Scan(&best).Error
	return best, err
}
