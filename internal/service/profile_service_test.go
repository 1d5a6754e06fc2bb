package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

type profileFixture struct {
	db  *gorm.DB
	svc ProfileService
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	postRepo := repository.NewPostRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	badges := NewBadgeService(badgeRepo, lessonRepo, postRepo, nil)

	svc := NewProfileService(userRepo, lessonRepo, submissionRepo, badges, nil, nil)
	return &profileFixture{db: db, svc: svc}
}

func (f *profileFixture) createUser(t *testing.T, points int) *model.User {
	t.Helper()
	user := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Student",
		TotalPoints:  points,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func TestLeaderboardRanksByPoints(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	low := f.createUser(t, 10)
	high := f.createUser(t, 100)
	mid := f.createUser(t, 50)

	entries, err := f.svc.Leaderboard(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, high.ID, entries[0].UserID)
	assert.Equal(t, mid.ID, entries[1].UserID)
	assert.Equal(t, low.ID, entries[2].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestLeaderboardOffsetKeepsAbsoluteRank(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	for i := 0; i < 5; i++ {
		f.createUser(t, (i+1)*10)
	}

	entries, err := f.svc.Leaderboard(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Rank)
	assert.Equal(t, 30, entries[0].TotalPoints)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)
	user := f.createUser(t, 0)

	bio := "preparing for the academic test"
	updated, err := f.svc.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
		FullName: "Renamed Student",
		Level:    "advanced",
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Student", updated.FullName)
	assert.Equal(t, "advanced", updated.Level)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)

	_, err = f.svc.UpdateProfile(ctx, uuid.New(), &dto.UpdateProfileRequest{FullName: "Ghost"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)
	user := f.createUser(t, 35)

	course := &model.Course{
		Title: "c", Slug: "c-" + uuid.NewString()[:8], Description: "d",
		Category: model.CourseCategorySpeaking, Difficulty: "beginner", IsPublished: true,
	}
	require.NoError(t, f.db.Create(course).Error)
	lesson := &model.Lesson{CourseID: course.ID, Title: "l", Slug: "l", Content: "c"}
	require.NoError(t, f.db.Create(lesson).Error)
	require.NoError(t, f.db.Create(&model.LessonCompletion{UserID: user.ID, LessonID: lesson.ID}).Error)

	assignment := &model.Assignment{
		Title: "a", Description: "d",
		AssignmentType: model.AssignmentSpeakingPart2, IsPublished: true,
	}
	require.NoError(t, f.db.Create(assignment).Error)
	score := 7.5
	sub := &model.Submission{
		AssignmentID: assignment.ID, UserID: user.ID, Content: "c",
		Status: model.SubmissionGraded, Score: &score,
	}
	require.NoError(t, f.db.Create(sub).Error)

	stats, err := f.svc.GetStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, stats.TotalPoints)
	assert.EqualValues(t, 1, stats.LessonsCompleted)
	assert.Equal(t, 7.5, stats.BestScore)
	assert.Zero(t, stats.BadgeCount)
}
