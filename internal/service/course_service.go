package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

type CourseService interface {
	GetPublishedCourses(ctx context.Context, category string) ([]model.Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (*model.Course, error)
	Enroll(ctx context.Context, userID, courseID uuid.UUID) error
	GetEnrollments(ctx context.Context, userID uuid.UUID) ([]model.Enrollment, error)
	// CompleteLesson requires enrollment in the lesson's course, then
	// delegates to the gamification engine for the completion fact,
	// point award and streak update.
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*dto.CompleteLessonResponse, error)
	GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*dto.CourseProgress, error)

	CreateCourse(ctx context.Context, creatorID uuid.UUID, req *dto.CreateCourseRequest) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, req *dto.UpdateCourseRequest) (*model.Course, error)
	CreateLesson(ctx context.Context, req *dto.CreateLessonRequest) (*model.Lesson, error)
	GetAllCourses(ctx context.Context) ([]model.Course, error)
}

type courseService struct {
	courseRepo   repository.CourseRepository
	lessonRepo   repository.LessonRepository
	gamification GamificationService
	search       SearchService
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	gamification GamificationService,
	search SearchService,
) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		gamification: gamification,
		search:       search,
	}
}

func (s *courseService) GetPublishedCourses(ctx context.Context, category string) ([]model.Course, error) {
	return s.courseRepo.FindPublished(ctx, category)
}

func (s *courseService) GetCourseBySlug(ctx context.Context, slug string) (*model.Course, error) {
	course, err := s.courseRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, apperror.ErrNotFound
	}
	return course, nil
}

func (s *courseService) Enroll(ctx context.Context, userID, courseID uuid.UUID) error {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	if !course.IsPublished {
		return apperror.ErrNotFound
	}

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
	}
	if err := s.courseRepo.Enroll(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

func (s *courseService) GetEnrollments(ctx context.Context, userID uuid.UUID) ([]model.Enrollment, error) {
	return s.courseRepo.FindEnrollments(ctx, userID)
}

func (s *courseService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*dto.CompleteLessonResponse, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	enrolled, err := s.courseRepo.IsEnrolled(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperror.ErrForbidden
	}

	already, err := s.gamification.CompleteLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	return &dto.CompleteLessonResponse{
		Completed:        true,
		AlreadyCompleted: already,
	}, nil
}

func (s *courseService) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*dto.CourseProgress, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	completedIDs, err := s.lessonRepo.CompletedLessonIDs(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if completedIDs == nil {
		completedIDs = []uuid.UUID{}
	}

	return &dto.CourseProgress{
		CourseID:           courseID,
		TotalLessons:       len(course.Lessons),
		CompletedLessonIDs: completedIDs,
	}, nil
}

func (s *courseService) CreateCourse(ctx context.Context, creatorID uuid.UUID, req *dto.CreateCourseRequest) (*model.Course, error) {
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Title)
	}

	course := &model.Course{
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		SortOrder:   req.SortOrder,
		IsPublished: req.IsPublished,
		CreatedBy:   &creatorID,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "a course with this slug already exists", apperror.ErrBadRequest)
		}
		return nil, err
	}

	s.indexCourse(course)
	return course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, req *dto.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	course.Title = req.Title
	course.Slug = req.Slug
	course.Description = req.Description
	course.Category = req.Category
	course.Difficulty = req.Difficulty
	course.SortOrder = req.SortOrder
	course.IsPublished = req.IsPublished

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.indexCourse(course)
	return course, nil
}

func (s *courseService) CreateLesson(ctx context.Context, req *dto.CreateLessonRequest) (*model.Lesson, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, apperror.ErrInvalidInput
	}
	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Title)
	}

	lesson := &model.Lesson{
		CourseID:     courseID,
		Title:        req.Title,
		Slug:         slug,
		Content:      req.Content,
		Summary:      req.Summary,
		SortOrder:    req.SortOrder,
		PointsReward: req.PointsReward,
		IsPublished:  req.IsPublished,
	}
	if lesson.PointsReward <= 0 {
		lesson.PointsReward = PointsLessonComplete
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *courseService) GetAllCourses(ctx context.Context) ([]model.Course, error) {
	return s.courseRepo.FindAll(ctx)
}

func (s *courseService) indexCourse(course *model.Course) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexCourse(course); err != nil {
		log.Printf("course: failed to index %q: %v", course.Slug, err)
	}
}

// slugify derives a URL slug from a title: lowercase, spaces to
// hyphens, everything but letters, digits and hyphens stripped.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
