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

type courseFixture struct {
	db  *gorm.DB
	svc CourseService
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	postRepo := repository.NewPostRepository(db)

	gamification := NewGamificationService(userRepo, lessonRepo, likeRepo, commentRepo, postRepo, nil)
	svc := NewCourseService(courseRepo, lessonRepo, gamification, nil)

	return &courseFixture{db: db, svc: svc}
}

func (f *courseFixture) createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Test Student",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *courseFixture) createCourse(t *testing.T, published bool, lessons int) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:       "Writing Task 2",
		Slug:        "writing-task-2-" + uuid.NewString()[:8],
		Description: "d",
		Category:    model.CourseCategoryWriting,
		Difficulty:  "intermediate",
		IsPublished: published,
	}
	require.NoError(t, f.db.Create(course).Error)

	for i := 0; i < lessons; i++ {
		lesson := &model.Lesson{
			CourseID:     course.ID,
			Title:        "Lesson",
			Slug:         uuid.NewString()[:8],
			Content:      "c",
			SortOrder:    i,
			PointsReward: 10,
			IsPublished:  true,
		}
		require.NoError(t, f.db.Create(lesson).Error)
		course.Lessons = append(course.Lessons, *lesson)
	}
	return course
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()

	t.Run("enrolls once and rejects the duplicate", func(t *testing.T) {
		f := newCourseFixture(t)
		user := f.createUser(t)
		course := f.createCourse(t, true, 0)

		require.NoError(t, f.svc.Enroll(ctx, user.ID, course.ID))
		assert.ErrorIs(t, f.svc.Enroll(ctx, user.ID, course.ID), apperror.ErrAlreadyEnrolled)
	})

	t.Run("unpublished course is not enrollable", func(t *testing.T) {
		f := newCourseFixture(t)
		user := f.createUser(t)
		course := f.createCourse(t, false, 0)

		assert.ErrorIs(t, f.svc.Enroll(ctx, user.ID, course.ID), apperror.ErrNotFound)
	})
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	user := f.createUser(t)
	course := f.createCourse(t, true, 1)
	lesson := course.Lessons[0]

	_, err := f.svc.CompleteLesson(ctx, user.ID, lesson.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, f.svc.Enroll(ctx, user.ID, course.ID))

	result, err := f.svc.CompleteLesson(ctx, user.ID, lesson.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.False(t, result.AlreadyCompleted)

	result, err = f.svc.CompleteLesson(ctx, user.ID, lesson.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
}

func TestGetProgress(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	user := f.createUser(t)
	course := f.createCourse(t, true, 3)
	require.NoError(t, f.svc.Enroll(ctx, user.ID, course.ID))

	progress, err := f.svc.GetProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalLessons)
	assert.Empty(t, progress.CompletedLessonIDs)

	_, err = f.svc.CompleteLesson(ctx, user.ID, course.Lessons[0].ID)
	require.NoError(t, err)

	progress, err = f.svc.GetProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{course.Lessons[0].ID}, progress.CompletedLessonIDs)
}

func TestGetCourseBySlug(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)

	published := f.createCourse(t, true, 2)
	hidden := f.createCourse(t, false, 0)

	got, err := f.svc.GetCourseBySlug(ctx, published.Slug)
	require.NoError(t, err)
	assert.Len(t, got.Lessons, 2)

	_, err = f.svc.GetCourseBySlug(ctx, hidden.Slug)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	creator := f.createUser(t)

	course, err := f.svc.CreateCourse(ctx, creator.ID, &dto.CreateCourseRequest{
		Title:       "Speaking Part 2 Mastery",
		Description: "d",
		Category:    model.CourseCategorySpeaking,
		Difficulty:  "advanced",
	})
	require.NoError(t, err)
	assert.Equal(t, "speaking-part-2-mastery", course.Slug)

	// Same derived slug collides.
	_, err = f.svc.CreateCourse(ctx, creator.ID, &dto.CreateCourseRequest{
		Title:       "Speaking Part 2 Mastery",
		Description: "d",
		Category:    model.CourseCategorySpeaking,
		Difficulty:  "beginner",
	})
	assert.Error(t, err)
}
