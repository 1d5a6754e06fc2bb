package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
)

// BadgeCriteria is the decoded shape of Badge.Criteria.
//
//	{"type":"streak","days":7}     - streak reached N days
//	{"type":"lessons","count":10}  - N lessons completed
//	{"type":"posts","count":5}     - N community posts created
//	{"type":"score","min":7.5}     - a graded submission at or above min
type BadgeCriteria struct {
	Type  string  `json:"type"`
	Days  int     `json:"days,omitempty"`
	Count int     `json:"count,omitempty"`
	Min   float64 `json:"min,omitempty"`
}

// BadgeService evaluates badge criteria after qualifying events and
// awards at most one badge per (user, badge). All evaluation is
// best-effort: failures are logged, never surfaced.
type BadgeService interface {
	EvaluateStreak(ctx context.Context, userID uuid.UUID, streak int)
	EvaluateCompletions(ctx context.Context, userID uuid.UUID)
	EvaluatePosts(ctx context.Context, userID uuid.UUID)
	EvaluateScore(ctx context.Context, userID uuid.UUID, score float64)
	UserBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error)
}

type badgeService struct {
	badgeRepo     repository.BadgeRepository
	lessonRepo    repository.LessonRepository
	postRepo      repository.PostRepository
	notifications NotificationService
}

func NewBadgeService(
	badgeRepo repository.BadgeRepository,
	lessonRepo repository.LessonRepository,
	postRepo repository.PostRepository,
	notifications NotificationService,
) BadgeService {
	return &badgeService{
		badgeRepo:     badgeRepo,
		lessonRepo:    lessonRepo,
		postRepo:      postRepo,
		notifications: notifications,
	}
}

func (s *badgeService) EvaluateStreak(ctx context.Context, userID uuid.UUID, streak int) {
	s.evaluate(ctx, userID, func(c BadgeCriteria) bool {
		return c.Type == "streak" && c.Days > 0 && streak >= c.Days
	})
}

func (s *badgeService) EvaluateCompletions(ctx context.Context, userID uuid.UUID) {
	count, err := s.lessonRepo.CountCompletions(ctx, userID)
	if err != nil {
		log.Printf("badge: failed to count completions for %s: %v", userID, err)
		return
	}
	s.evaluate(ctx, userID, func(c BadgeCriteria) bool {
		return c.Type == "lessons" && c.Count > 0 && count >= int64(c.Count)
	})
}

func (s *badgeService) EvaluatePosts(ctx context.Context, userID uuid.UUID) {
	count, err := s.postRepo.CountByAuthor(ctx, userID)
	if err != nil {
		log.Printf("badge: failed to count posts for %s: %v", userID, err)
		return
	}
	s.evaluate(ctx, userID, func(c BadgeCriteria) bool {
		return c.Type == "posts" && c.Count > 0 && count >= int64(c.Count)
	})
}

func (s *badgeService) EvaluateScore(ctx context.Context, userID uuid.UUID, score float64) {
	s.evaluate(ctx, userID, func(c BadgeCriteria) bool {
		return c.Type == "score" && c.Min > 0 && score >= c.Min
	})
}

func (s *badgeService) UserBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error) {
	return s.badgeRepo.FindByUser(ctx, userID)
}

func (s *badgeService) evaluate(ctx context.Context, userID uuid.UUID, matches func(BadgeCriteria) bool) {
	badges, err := s.badgeRepo.FindAll(ctx)
	if err != nil {
		log.Printf("badge: failed to load badge definitions: %v", err)
		return
	}

	for _, badge := range badges {
		var criteria BadgeCriteria
		if err := json.Unmarshal(badge.Criteria, &criteria); err != nil {
			log.Printf("badge: invalid criteria on %q: %v", badge.Name, err)
			continue
		}
		if !matches(criteria) {
			continue
		}
		s.award(ctx, userID, badge)
	}
}

func (s *badgeService) award(ctx context.Context, userID uuid.UUID, badge model.Badge) {
	has, err := s.badgeRepo.HasBadge(ctx, userID, badge.ID)
	if err != nil || has {
		return
	}

	userBadge := &model.UserBadge{
		UserID:  userID,
		BadgeID: badge.ID,
	}
	if err := s.badgeRepo.Award(ctx, userBadge); err != nil {
		// A concurrent award already inserted the fact.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return
		}
		log.Printf("badge: failed to award %q to %s: %v", badge.Name, userID, err)
		return
	}

	if s.notifications != nil {
		notif := &model.Notification{
			UserID:     userID,
			ActorID:    userID,
			EntityID:   badge.ID,
			EntityType: "badge",
			Type:       model.NotificationBadgeEarned,
			Message:    fmt.Sprintf("You earned the %q badge!", badge.Name),
		}
		if err := s.notifications.CreateNotification(ctx, notif); err != nil {
			log.Printf("badge: failed to notify %s about %q: %v", userID, badge.Name, err)
		}
	}
}
