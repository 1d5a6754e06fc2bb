package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
	"learn2b.app/ieltsbackend/pkg/ratelimiter"
)

type PostService interface {
	GetPosts(ctx context.Context, filter *dto.PostFilter) ([]model.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// CreatePost is rate limited per user, awards post-creation points
	// and advances the streak.
	CreatePost(ctx context.Context, authorID uuid.UUID, req *dto.CreatePostRequest) (*model.Post, error)
	UpdatePost(ctx context.Context, userID, postID uuid.UUID, req *dto.UpdatePostRequest) (*model.Post, error)
	DeletePost(ctx context.Context, userID uuid.UUID, isAdmin bool, postID uuid.UUID) error
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	GetComments(ctx context.Context, postID uuid.UUID) ([]model.Comment, error)
	CreateComment(ctx context.Context, authorID, postID uuid.UUID, req *dto.CreateCommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID uuid.UUID, isAdmin bool, commentID uuid.UUID) error
}

type postService struct {
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	gamification GamificationService
	badges       BadgeService
	notify       NotificationService
	search       SearchService
	redisClient  *redis.Client

	postCooldown    time.Duration
	commentCooldown time.Duration
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	gamification GamificationService,
	badges BadgeService,
	notify NotificationService,
	search SearchService,
	redisClient *redis.Client,
	postCooldown, commentCooldown time.Duration,
) PostService {
	return &postService{
		postRepo:        postRepo,
		commentRepo:     commentRepo,
		gamification:    gamification,
		badges:          badges,
		notify:          notify,
		search:          search,
		redisClient:     redisClient,
		postCooldown:    postCooldown,
		commentCooldown: commentCooldown,
	}
}

func (s *postService) GetPosts(ctx context.Context, filter *dto.PostFilter) ([]model.Post, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return s.postRepo.FindVisible(ctx, filter.Category, limit, (page-1)*limit)
}

func (s *postService) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if post.IsHidden {
		return nil, apperror.ErrNotFound
	}
	return post, nil
}

func (s *postService) CreatePost(ctx context.Context, authorID uuid.UUID, req *dto.CreatePostRequest) (*model.Post, error) {
	if s.postCooldown > 0 {
		allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, authorID, "create_post", s.postCooldown)
		if err != nil {
			log.Printf("post: rate limit check failed for %s: %v", authorID, err)
		} else if !allowed {
			ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, authorID, "create_post")
			return nil, &ratelimiter.RateLimitError{
				Message:    "you are posting too fast, try again later",
				RetryAfter: ttl,
			}
		}
	}

	category := req.Category
	if category == "" {
		category = model.PostCategoryGeneral
	}

	post := &model.Post{
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
		Category: category,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.gamification.AddPoints(ctx, authorID, PointsCreatePost)
	s.gamification.UpdateStreak(ctx, authorID)
	if s.badges != nil {
		s.badges.EvaluatePosts(ctx, authorID)
	}
	s.indexPost(post)

	return s.postRepo.FindByID(ctx, post.ID)
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID uuid.UUID, req *dto.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperror.ErrForbidden
	}

	post.Title = req.Title
	post.Content = req.Content
	if req.Category != "" {
		post.Category = req.Category
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.indexPost(post)
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, userID uuid.UUID, isAdmin bool, postID uuid.UUID) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	if post.AuthorID != userID && !isAdmin {
		return apperror.ErrForbidden
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	post.IsHidden = true
	s.indexPost(post)
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.ErrNotFound
		}
		return false, err
	}

	liked, err := s.gamification.ToggleLike(ctx, userID, postID)
	if err != nil {
		return false, err
	}

	// Notify the author on a fresh like, never on an unlike or a
	// self-like.
	if liked && post.AuthorID != userID && s.notify != nil {
		notif := &model.Notification{
			UserID:     post.AuthorID,
			ActorID:    userID,
			EntityID:   postID,
			EntityType: "post",
			Type:       model.NotificationPostLiked,
			Message:    fmt.Sprintf("Someone liked your post %q", post.Title),
		}
		if err := s.notify.CreateNotification(ctx, notif); err != nil {
			log.Printf("post: failed to notify like on %s: %v", postID, err)
		}
	}

	return liked, nil
}

func (s *postService) GetComments(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return s.commentRepo.FindVisibleByPost(ctx, postID)
}

func (s *postService) CreateComment(ctx context.Context, authorID, postID uuid.UUID, req *dto.CreateCommentRequest) (*model.Comment, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if post.IsHidden {
		return nil, apperror.ErrNotFound
	}

	if s.commentCooldown > 0 {
		allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, authorID, "create_comment", s.commentCooldown)
		if err != nil {
			log.Printf("comment: rate limit check failed for %s: %v", authorID, err)
		} else if !allowed {
			ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, authorID, "create_comment")
			return nil, &ratelimiter.RateLimitError{
				Message:    "you are commenting too fast, try again later",
				RetryAfter: ttl,
			}
		}
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  req.Content,
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, apperror.ErrInvalidInput
		}
		parent, err := s.commentRepo.FindByID(ctx, parentID)
		if err != nil || parent.PostID != postID {
			return nil, apperror.ErrInvalidInput
		}
		comment.ParentID = &parentID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Comments refresh the post counter but are not a streak-qualifying
	// activity; only lessons, submissions and posts advance the streak.
	if err := s.gamification.RecountComments(ctx, postID); err != nil {
		log.Printf("comment: recount failed for post %s: %v", postID, err)
	}

	if post.AuthorID != authorID && s.notify != nil {
		notif := &model.Notification{
			UserID:     post.AuthorID,
			ActorID:    authorID,
			EntityID:   postID,
			EntityType: "post",
			Type:       model.NotificationCommentReceived,
			Message:    fmt.Sprintf("New comment on your post %q", post.Title),
		}
		if err := s.notify.CreateNotification(ctx, notif); err != nil {
			log.Printf("comment: failed to notify on %s: %v", postID, err)
		}
	}

	return comment, nil
}

func (s *postService) DeleteComment(ctx context.Context, userID uuid.UUID, isAdmin bool, commentID uuid.UUID) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	if comment.AuthorID != userID && !isAdmin {
		return apperror.ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}
	if err := s.gamification.RecountComments(ctx, comment.PostID); err != nil {
		log.Printf("comment: recount after delete failed for post %s: %v", comment.PostID, err)
	}
	return nil
}

func (s *postService) indexPost(post *model.Post) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexPost(post); err != nil {
		log.Printf("post: failed to index %s: %v", post.ID, err)
	}
}
