package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
)

type badgeFixture struct {
	db  *gorm.DB
	svc BadgeService
}

func newBadgeFixture(t *testing.T) *badgeFixture {
	t.Helper()

	db := newTestDB(t)
	badgeRepo := repository.NewBadgeRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	postRepo := repository.NewPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notifications := NewNotificationService(notificationRepo, nil)

	return &badgeFixture{
		db:  db,
		svc: NewBadgeService(badgeRepo, lessonRepo, postRepo, notifications),
	}
}

func (f *badgeFixture) createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Test Student",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *badgeFixture) createBadge(t *testing.T, name, criteria string) *model.Badge {
	t.Helper()
	badge := &model.Badge{
		Name:        name,
		Description: "d",
		Category:    model.BadgeCategoryStreak,
		Criteria:    datatypes.JSON(criteria),
	}
	require.NoError(t, f.db.Create(badge).Error)
	return badge
}

func (f *badgeFixture) badgeCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.UserBadge{}).
		Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestEvaluateStreak(t *testing.T) {
	ctx := context.Background()
	f := newBadgeFixture(t)
	user := f.createUser(t)
	f.createBadge(t, "Week Warrior", `{"type":"streak","days":7}`)

	f.svc.EvaluateStreak(ctx, user.ID, 3)
	assert.Zero(t, f.badgeCount(t, user.ID))

	f.svc.EvaluateStreak(ctx, user.ID, 7)
	assert.EqualValues(t, 1, f.badgeCount(t, user.ID))

	// Re-reaching the threshold never re-awards.
	f.svc.EvaluateStreak(ctx, user.ID, 8)
	assert.EqualValues(t, 1, f.badgeCount(t, user.ID))

	// The award produced a notification.
	var notifCount int64
	require.NoError(t, f.db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", user.ID, model.NotificationBadgeEarned).
		Count(&notifCount).Error)
	assert.EqualValues(t, 1, notifCount)
}

func TestEvaluateScore(t *testing.T) {
	ctx := context.Background()
	f := newBadgeFixture(t)
	user := f.createUser(t)
	f.createBadge(t, "Band 7 Club", `{"type":"score","min":7}`)

	f.svc.EvaluateScore(ctx, user.ID, 6.5)
	assert.Zero(t, f.badgeCount(t, user.ID))

	f.svc.EvaluateScore(ctx, user.ID, 7.5)
	assert.EqualValues(t, 1, f.badgeCount(t, user.ID))
}

func TestEvaluateIgnoresMalformedCriteria(t *testing.T) {
	ctx := context.Background()
	f := newBadgeFixture(t)
	user := f.createUser(t)
	f.createBadge(t, "Broken", `not json`)
	f.createBadge(t, "Valid", `{"type":"streak","days":1}`)

	// Must not panic; the valid badge still lands.
	f.svc.EvaluateStreak(ctx, user.ID, 1)
	assert.EqualValues(t, 1, f.badgeCount(t, user.ID))
}

func TestUserBadgesPreloadsDefinition(t *testing.T) {
	ctx := context.Background()
	f := newBadgeFixture(t)
	user := f.createUser(t)
	f.createBadge(t, "Week Warrior", `{"type":"streak","days":7}`)
	f.svc.EvaluateStreak(ctx, user.ID, 7)

	badges, err := f.svc.UserBadges(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Week Warrior", badges[0].Badge.Name)
}
