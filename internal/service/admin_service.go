package service

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

// DashboardStats is the admin landing-page summary.
type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	PublishedCourses   int64 `json:"published_courses"`
	VisiblePosts       int64 `json:"visible_posts"`
	PendingSubmissions int64 `json:"pending_submissions"`
}

type AdminService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetUsers(ctx context.Context, search string, page, limit int) ([]model.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error
	// SetPostHidden moderates a post and keeps the search index in sync.
	SetPostHidden(ctx context.Context, postID uuid.UUID, hidden bool) error
	// SetCommentHidden moderates a comment and recounts the parent
	// post's comments_count, since hidden comments leave the count.
	SetCommentHidden(ctx context.Context, commentID uuid.UUID, hidden bool) error
	SetPostPinned(ctx context.Context, postID uuid.UUID, pinned bool) error
	CreateBadge(ctx context.Context, badge *model.Badge) error
}

type adminService struct {
	userRepo       repository.UserRepository
	courseRepo     repository.CourseRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	submissionRepo repository.SubmissionRepository
	badgeRepo      repository.BadgeRepository
	gamification   GamificationService
	search         SearchService
}

func NewAdminService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	submissionRepo repository.SubmissionRepository,
	badgeRepo repository.BadgeRepository,
	gamification GamificationService,
	search SearchService,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		submissionRepo: submissionRepo,
		badgeRepo:      badgeRepo,
		gamification:   gamification,
		search:         search,
	}
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.CountPublished(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.CountVisible(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.submissionRepo.CountByStatus(ctx, model.SubmissionPending)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalUsers:         users,
		PublishedCourses:   courses,
		VisiblePosts:       posts,
		PendingSubmissions: pending,
	}, nil
}

func (s *adminService) GetUsers(ctx context.Context, search string, page, limit int) ([]model.User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.userRepo.FindAll(ctx, search, limit, (page-1)*limit)
}

func (s *adminService) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	switch role {
	case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
	default:
		return apperror.ErrInvalidInput
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

func (s *adminService) SetPostHidden(ctx context.Context, postID uuid.UUID, hidden bool) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.postRepo.SetHidden(ctx, postID, hidden); err != nil {
		return err
	}

	if s.search != nil {
		post.IsHidden = hidden
		if err := s.search.IndexPost(post); err != nil {
			log.Printf("admin: failed to reindex post %s: %v", postID, err)
		}
	}
	return nil
}

func (s *adminService) SetCommentHidden(ctx context.Context, commentID uuid.UUID, hidden bool) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.commentRepo.SetHidden(ctx, commentID, hidden); err != nil {
		return err
	}
	return s.gamification.RecountComments(ctx, comment.PostID)
}

func (s *adminService) SetPostPinned(ctx context.Context, postID uuid.UUID, pinned bool) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	post.IsPinned = pinned
	return s.postRepo.Update(ctx, post)
}

func (s *adminService) CreateBadge(ctx context.Context, badge *model.Badge) error {
	if err := s.badgeRepo.Create(ctx, badge); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.New(http.StatusConflict, "a badge with this name already exists", apperror.ErrBadRequest)
		}
		return err
	}
	return nil
}
