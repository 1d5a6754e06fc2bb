package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

// Point values per qualifying action, and the band score at or above
// which grading pays the high-score bonus.
const (
	PointsLessonComplete   = 10
	PointsAssignmentSubmit = 20
	PointsHighScoreBonus   = 15
	PointsCreatePost       = 5

	HighScoreThreshold = 6.5
)

// dateLayout is the calendar-day granularity used for streaks. Dates
// are anchored to UTC.
const dateLayout = "2006-01-02"

// GamificationService maintains derived state after qualifying user
// actions: total points, daily streaks, and the denormalized like and
// comment counters on posts. AddPoints and UpdateStreak are
// best-effort: they log failures and never propagate them, so the
// primary action that triggered them always succeeds.
type GamificationService interface {
	AddPoints(ctx context.Context, userID uuid.UUID, points int)
	UpdateStreak(ctx context.Context, userID uuid.UUID)
	// CompleteLesson records the completion fact and, on first
	// completion only, awards the lesson's point reward and advances
	// the streak. A repeat completion reports alreadyCompleted with no
	// re-award. A missing lesson is an error and nothing is written.
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (alreadyCompleted bool, err error)
	// ToggleLike flips the (user, post) like fact, then recounts all
	// like facts for the post and overwrites likes_count with the
	// result. Returns the new liked state for this user.
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (liked bool, err error)
	// RecountComments overwrites the post's comments_count with the
	// number of currently visible comments.
	RecountComments(ctx context.Context, postID uuid.UUID) error
}

type gamificationService struct {
	userRepo    repository.UserRepository
	lessonRepo  repository.LessonRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	badges      BadgeService

	// now is overridable in tests to cross calendar-day boundaries.
	now func() time.Time
}

func NewGamificationService(
	userRepo repository.UserRepository,
	lessonRepo repository.LessonRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	badges BadgeService,
) GamificationService {
	return &gamificationService{
		userRepo:    userRepo,
		lessonRepo:  lessonRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		badges:      badges,
		now:         time.Now,
	}
}

// AddPoints increases total_points by the given delta. The write is a
// plain read-modify-write with last-write-wins semantics; callers are
// responsible for once-per-event idempotency (e.g. via the
// lesson_completions fact). A missing profile makes this a no-op.
func (s *gamificationService) AddPoints(ctx context.Context, userID uuid.UUID, points int) {
	if points <= 0 {
		return
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("addPoints: profile %s not found, skipping: %v", userID, err)
		return
	}

	if err := s.userRepo.UpdateGamification(ctx, userID, map[string]interface{}{
		"total_points": user.TotalPoints + points,
	}); err != nil {
		log.Printf("addPoints: failed to update points for %s: %v", userID, err)
	}
}

// UpdateStreak credits today's activity at most once per UTC calendar
// day: consecutive days extend the streak, any gap resets it to 1.
func (s *gamificationService) UpdateStreak(ctx context.Context, userID uuid.UUID) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("updateStreak: profile %s not found, skipping: %v", userID, err)
		return
	}

	today := s.now().UTC()
	todayStr := today.Format(dateLayout)

	var lastStr string
	if user.LastActivityDate != nil {
		lastStr = user.LastActivityDate.UTC().Format(dateLayout)
	}

	if lastStr == todayStr {
		// Streak already credited today.
		return
	}

	newStreak := 1
	if lastStr == today.AddDate(0, 0, -1).Format(dateLayout) {
		newStreak = user.CurrentStreak + 1
	}

	newLongest := user.LongestStreak
	if newStreak > newLongest {
		newLongest = newStreak
	}

	activityDate, _ := time.ParseInLocation(dateLayout, todayStr, time.UTC)
	if err := s.userRepo.UpdateGamification(ctx, userID, map[string]interface{}{
		"current_streak":     newStreak,
		"longest_streak":     newLongest,
		"last_activity_date": activityDate,
	}); err != nil {
		log.Printf("updateStreak: failed to update streak for %s: %v", userID, err)
		return
	}

	if s.badges != nil {
		s.badges.EvaluateStreak(ctx, userID, newStreak)
	}
}

func (s *gamificationService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (bool, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.ErrNotFound
		}
		return false, err
	}

	completion := &model.LessonCompletion{
		UserID:   userID,
		LessonID: lessonID,
	}
	if err := s.lessonRepo.CreateCompletion(ctx, completion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Already completed: success with no second award.
			return true, nil
		}
		return false, err
	}

	reward := lesson.PointsReward
	if reward <= 0 {
		reward = PointsLessonComplete
	}

	s.AddPoints(ctx, userID, reward)
	s.UpdateStreak(ctx, userID)

	if s.badges != nil {
		s.badges.EvaluateCompletions(ctx, userID)
	}

	return false, nil
}

func (s *gamificationService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.ErrNotFound
		}
		return false, err
	}

	exists, err := s.likeRepo.Exists(ctx, userID, postID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := s.likeRepo.Delete(ctx, userID, postID); err != nil {
			return false, err
		}
	} else {
		if err := s.likeRepo.Create(ctx, userID, postID); err != nil {
			// A concurrent like already inserted the fact; the recount
			// below still produces the right number.
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return false, err
			}
		}
	}

	// Full recount rather than increment/decrement: the stored counter
	// self-heals from any prior drift on the next toggle.
	count, err := s.likeRepo.CountByPost(ctx, postID)
	if err != nil {
		log.Printf("toggleLike: recount failed for post %s: %v", postID, err)
		return !exists, nil
	}
	if err := s.postRepo.UpdateLikesCount(ctx, postID, count); err != nil {
		log.Printf("toggleLike: failed to store likes_count for post %s: %v", postID, err)
	}

	return !exists, nil
}

func (s *gamificationService) RecountComments(ctx context.Context, postID uuid.UUID) error {
	count, err := s.commentRepo.CountVisibleByPost(ctx, postID)
	if err != nil {
		return err
	}
	return s.postRepo.UpdateCommentsCount(ctx, postID, count)
}
