package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

type adminFixture struct {
	db  *gorm.DB
	svc AdminService

	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	postRepo := repository.NewPostRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	gamification := NewGamificationService(userRepo, lessonRepo, likeRepo, commentRepo, postRepo, nil)
	svc := NewAdminService(userRepo, courseRepo, postRepo, commentRepo, submissionRepo, badgeRepo, gamification, nil)

	return &adminFixture{db: db, svc: svc, postRepo: postRepo, userRepo: userRepo}
}

func (f *adminFixture) createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Test Student",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func TestSetCommentHiddenRecounts(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	author := f.createUser(t)

	post := &model.Post{AuthorID: author.ID, Title: "t", Content: "c"}
	require.NoError(t, f.db.Create(post).Error)
	comment := &model.Comment{PostID: post.ID, AuthorID: author.ID, Content: "spam"}
	require.NoError(t, f.db.Create(comment).Error)
	require.NoError(t, f.postRepo.UpdateCommentsCount(ctx, post.ID, 1))

	require.NoError(t, f.svc.SetCommentHidden(ctx, comment.ID, true))

	got, err := f.postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CommentsCount)

	// Unhiding restores it.
	require.NoError(t, f.svc.SetCommentHidden(ctx, comment.ID, false))

	got, err = f.postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestSetPostHidden(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	author := f.createUser(t)

	post := &model.Post{AuthorID: author.ID, Title: "t", Content: "c"}
	require.NoError(t, f.db.Create(post).Error)

	require.NoError(t, f.svc.SetPostHidden(ctx, post.ID, true))

	got, err := f.postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.IsHidden)

	assert.ErrorIs(t, f.svc.SetPostHidden(ctx, uuid.New(), true), apperror.ErrNotFound)
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	user := f.createUser(t)

	require.NoError(t, f.svc.UpdateUserRole(ctx, user.ID, model.RoleTeacher))

	got, err := f.userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, got.Role)

	assert.ErrorIs(t, f.svc.UpdateUserRole(ctx, user.ID, "superuser"), apperror.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.UpdateUserRole(ctx, uuid.New(), model.RoleAdmin), apperror.ErrNotFound)
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	author := f.createUser(t)

	course := &model.Course{
		Title: "c", Slug: "c-" + uuid.NewString()[:8], Description: "d",
		Category: model.CourseCategoryWriting, Difficulty: "beginner", IsPublished: true,
	}
	require.NoError(t, f.db.Create(course).Error)

	post := &model.Post{AuthorID: author.ID, Title: "t", Content: "c"}
	require.NoError(t, f.db.Create(post).Error)
	hiddenPost := &model.Post{AuthorID: author.ID, Title: "t2", Content: "c2", IsHidden: true}
	require.NoError(t, f.db.Create(hiddenPost).Error)

	stats, err := f.svc.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.PublishedCourses)
	assert.EqualValues(t, 1, stats.VisiblePosts)
	assert.EqualValues(t, 0, stats.PendingSubmissions)
}
