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

type postFixture struct {
	db  *gorm.DB
	svc PostService

	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	postRepo := repository.NewPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifications := NewNotificationService(notificationRepo, nil)
	gamification := NewGamificationService(userRepo, lessonRepo, likeRepo, commentRepo, postRepo, nil)
	// Redis nil disables the cooldowns regardless of their values.
	svc := NewPostService(postRepo, commentRepo, gamification, nil, notifications, nil, nil, 0, 0)

	return &postFixture{db: db, svc: svc, userRepo: userRepo, postRepo: postRepo}
}

func (f *postFixture) createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Test Student",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *postFixture) createPost(t *testing.T, authorID uuid.UUID) *model.Post {
	t.Helper()
	post, err := f.svc.CreatePost(context.Background(), authorID, &dto.CreatePostRequest{
		Title:   "How I got band 7 in writing",
		Content: "a detailed write-up of my preparation",
	})
	require.NoError(t, err)
	return post
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)

	post := f.createPost(t, author.ID)
	assert.Equal(t, model.PostCategoryGeneral, post.Category)

	user, err := f.userRepo.FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, PointsCreatePost, user.TotalPoints)
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestCommentsKeepCounterFresh(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)
	commenter := f.createUser(t)
	post := f.createPost(t, author.ID)

	comment, err := f.svc.CreateComment(ctx, commenter.ID, post.ID, &dto.CreateCommentRequest{
		Content: "great advice, thanks",
	})
	require.NoError(t, err)

	got, err := f.postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)

	// Commenting is not a streak activity: only lessons, submissions
	// and posts count, so the commenter's streak stays untouched.
	seen, err := f.userRepo.FindByID(ctx, commenter.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, seen.CurrentStreak)
	assert.Equal(t, 0, seen.TotalPoints)

	// The post author was notified about the comment.
	var notifCount int64
	require.NoError(t, f.db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", author.ID, model.NotificationCommentReceived).
		Count(&notifCount).Error)
	assert.EqualValues(t, 1, notifCount)

	require.NoError(t, f.svc.DeleteComment(ctx, commenter.ID, false, comment.ID))

	got, err = f.postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CommentsCount)
}

func TestCommentReplies(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)
	post := f.createPost(t, author.ID)

	parent, err := f.svc.CreateComment(ctx, author.ID, post.ID, &dto.CreateCommentRequest{Content: "top level"})
	require.NoError(t, err)

	parentID := parent.ID.String()
	reply, err := f.svc.CreateComment(ctx, author.ID, post.ID, &dto.CreateCommentRequest{
		Content:  "a reply",
		ParentID: &parentID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	// Parent must belong to the same post.
	other := f.createPost(t, author.ID)
	_, err = f.svc.CreateComment(ctx, author.ID, other.ID, &dto.CreateCommentRequest{
		Content:  "cross-post reply",
		ParentID: &parentID,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestLikeNotifiesAuthorOnce(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)
	liker := f.createUser(t)
	post := f.createPost(t, author.ID)

	liked, err := f.svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// Unlike produces no second notification.
	liked, err = f.svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	// Self-likes are silent.
	_, err = f.svc.ToggleLike(ctx, author.ID, post.ID)
	require.NoError(t, err)

	var notifCount int64
	require.NoError(t, f.db.Model(&model.Notification{}).
		Where("type = ?", model.NotificationPostLiked).
		Count(&notifCount).Error)
	assert.EqualValues(t, 1, notifCount)
}

func TestPostOwnership(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)
	stranger := f.createUser(t)
	post := f.createPost(t, author.ID)

	_, err := f.svc.UpdatePost(ctx, stranger.ID, post.ID, &dto.UpdatePostRequest{
		Title:   "hijacked title",
		Content: "some replacement text",
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = f.svc.DeletePost(ctx, stranger.ID, false, post.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Admins moderate anything.
	require.NoError(t, f.svc.DeletePost(ctx, stranger.ID, true, post.ID))
}

func TestGetPostsHidesModerated(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)
	author := f.createUser(t)

	visible := f.createPost(t, author.ID)
	hidden := f.createPost(t, author.ID)
	require.NoError(t, f.postRepo.SetHidden(ctx, hidden.ID, true))

	posts, err := f.svc.GetPosts(ctx, &dto.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, visible.ID, posts[0].ID)

	_, err = f.svc.GetPost(ctx, hidden.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
