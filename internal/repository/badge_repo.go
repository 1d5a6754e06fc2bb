package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
)

type BadgeRepository interface {
	Create(ctx context.Context, badge *model.Badge) error
	FindAll(ctx context.Context) ([]model.Badge, error)
	FindByName(ctx context.Context, name string) (*model.Badge, error)
	// Award inserts the user_badge fact; the unique index on
	// (user_id, badge_id) rejects a second award.
	Award(ctx context.Context, userBadge *model.UserBadge) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error)
	HasBadge(ctx context.Context, userID, badgeID uuid.UUID) (bool, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) Create(ctx context.Context, badge *model.Badge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}

func (r *badgeRepository) FindAll(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	if err := r.db.WithContext(ctx).Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *badgeRepository) FindByName(ctx context.Context, name string) (*model.Badge, error) {
	var badge model.Badge
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

func (r *badgeRepository) Award(ctx context.Context, userBadge *model.UserBadge) error {
	return r.db.WithContext(ctx).Create(userBadge).Error
}

func (r *badgeRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error) {
	var userBadges []model.UserBadge
	if err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&userBadges).Error; err != nil {
		return nil, err
	}
	return userBadges, nil
}

func (r *badgeRepository) HasBadge(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
