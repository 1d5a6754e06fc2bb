package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
	"learn2b.app/ieltsbackend/pkg/storage"
)

type AssignmentService interface {
	GetPublishedAssignments(ctx context.Context, courseID *uuid.UUID) ([]model.Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	// Submit records the submission, awards the assignment's submit
	// points and advances the streak.
	Submit(ctx context.Context, userID, assignmentID uuid.UUID, req *dto.SubmitAssignmentRequest, file *multipart.FileHeader) (*model.Submission, error)
	GetMySubmissions(ctx context.Context, userID uuid.UUID) ([]model.Submission, error)
	// Grade validates the band score against [0, MaxScore] before any
	// write, then applies score, feedback, grader and status in one
	// update. Scores at or above the high-score threshold pay a bonus.
	Grade(ctx context.Context, graderID, submissionID uuid.UUID, score float64, feedback string) (*model.Submission, error)
	GetSubmissionsForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]model.Submission, error)
	CreateAssignment(ctx context.Context, creatorID uuid.UUID, req *dto.CreateAssignmentRequest) (*model.Assignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	submissionRepo repository.SubmissionRepository
	gamification   GamificationService
	badges         BadgeService
	notifications  NotificationService
	files          storage.FileStorage
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	submissionRepo repository.SubmissionRepository,
	gamification GamificationService,
	badges BadgeService,
	notifications NotificationService,
	files storage.FileStorage,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		gamification:   gamification,
		badges:         badges,
		notifications:  notifications,
		files:          files,
	}
}

func (s *assignmentService) GetPublishedAssignments(ctx context.Context, courseID *uuid.UUID) ([]model.Assignment, error) {
	return s.assignmentRepo.FindPublished(ctx, courseID)
}

func (s *assignmentService) GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) Submit(ctx context.Context, userID, assignmentID uuid.UUID, req *dto.SubmitAssignmentRequest, file *multipart.FileHeader) (*model.Submission, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if !assignment.IsPublished {
		return nil, apperror.ErrNotFound
	}
	if assignment.DueDate != nil && time.Now().After(*assignment.DueDate) {
		return nil, apperror.New(http.StatusBadRequest, "the due date for this assignment has passed", apperror.ErrBadRequest)
	}

	submission := &model.Submission{
		AssignmentID: assignmentID,
		UserID:       userID,
		Content:      req.Content,
		Status:       model.SubmissionPending,
	}

	if file != nil && s.files != nil {
		src, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open submission file: %w", err)
		}
		defer src.Close()

		url, err := s.files.Upload(ctx, src, "submissions", file.Filename)
		if err != nil {
			return nil, fmt.Errorf("upload submission file: %w", err)
		}
		submission.FileURL = &url
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}

	reward := assignment.PointsReward
	if reward <= 0 {
		reward = PointsAssignmentSubmit
	}
	s.gamification.AddPoints(ctx, userID, reward)
	s.gamification.UpdateStreak(ctx, userID)

	return submission, nil
}

func (s *assignmentService) GetMySubmissions(ctx context.Context, userID uuid.UUID) ([]model.Submission, error) {
	return s.submissionRepo.FindByUser(ctx, userID)
}

func (s *assignmentService) Grade(ctx context.Context, graderID, submissionID uuid.UUID, score float64, feedback string) (*model.Submission, error) {
	submission, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	maxScore := submission.Assignment.MaxScore
	if maxScore <= 0 {
		maxScore = 9
	}
	// Validation happens before any write: a rejected score must leave
	// both the submission and the student's points untouched.
	if score < 0 || score > maxScore {
		return nil, apperror.New(
			http.StatusBadRequest,
			fmt.Sprintf("score must be between 0 and %g", maxScore),
			apperror.ErrInvalidInput,
		)
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":    model.SubmissionGraded,
		"score":     score,
		"graded_by": graderID,
		"graded_at": now,
	}
	if feedback != "" {
		fields["feedback"] = feedback
	}
	if err := s.submissionRepo.Grade(ctx, submissionID, fields); err != nil {
		return nil, err
	}

	if score >= HighScoreThreshold {
		s.gamification.AddPoints(ctx, submission.UserID, PointsHighScoreBonus)
	}
	if s.badges != nil {
		s.badges.EvaluateScore(ctx, submission.UserID, score)
	}

	if s.notifications != nil {
		notif := &model.Notification{
			UserID:     submission.UserID,
			ActorID:    graderID,
			EntityID:   submissionID,
			EntityType: "submission",
			Type:       model.NotificationGraded,
			Message:    fmt.Sprintf("Your submission for %q was graded: %g", submission.Assignment.Title, score),
		}
		if err := s.notifications.CreateNotification(ctx, notif); err != nil {
			log.Printf("grade: failed to notify %s: %v", submission.UserID, err)
		}
	}

	return s.submissionRepo.FindByID(ctx, submissionID)
}

func (s *assignmentService) GetSubmissionsForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]model.Submission, error) {
	if _, err := s.assignmentRepo.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return s.submissionRepo.FindByAssignment(ctx, assignmentID)
}

func (s *assignmentService) CreateAssignment(ctx context.Context, creatorID uuid.UUID, req *dto.CreateAssignmentRequest) (*model.Assignment, error) {
	assignment := &model.Assignment{
		Title:          req.Title,
		Description:    req.Description,
		AssignmentType: req.AssignmentType,
		PointsReward:   req.PointsReward,
		IsPublished:    req.IsPublished,
		CreatedBy:      &creatorID,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return nil, apperror.New(http.StatusBadRequest, "due_date must be RFC3339", apperror.ErrInvalidInput)
		}
		assignment.DueDate = &due
	}
	if req.CourseID != nil {
		courseID, err := uuid.Parse(*req.CourseID)
		if err != nil {
			return nil, apperror.ErrInvalidInput
		}
		assignment.CourseID = &courseID
	}
	if assignment.MaxScore <= 0 {
		assignment.MaxScore = 9
	}
	if assignment.PointsReward <= 0 {
		assignment.PointsReward = PointsAssignmentSubmit
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}
