package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
	"learn2b.app/ieltsbackend/pkg/storage"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 60 * time.Second
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*dto.ProfileStats, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*model.User, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error)
	// Leaderboard ranks users by total points. The first page is cached
	// in Redis for a short window; rankings lag writes by at most the
	// cache TTL.
	Leaderboard(ctx context.Context, limit, offset int) ([]dto.LeaderboardEntry, error)
	GetBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error)
}

type profileService struct {
	userRepo       repository.UserRepository
	lessonRepo     repository.LessonRepository
	submissionRepo repository.SubmissionRepository
	badges         BadgeService
	files          storage.FileStorage
	redisClient    *redis.Client
}

func NewProfileService(
	userRepo repository.UserRepository,
	lessonRepo repository.LessonRepository,
	submissionRepo repository.SubmissionRepository,
	badges BadgeService,
	files storage.FileStorage,
	redisClient *redis.Client,
) ProfileService {
	return &profileService{
		userRepo:       userRepo,
		lessonRepo:     lessonRepo,
		submissionRepo: submissionRepo,
		badges:         badges,
		files:          files,
		redisClient:    redisClient,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *profileService) GetStats(ctx context.Context, userID uuid.UUID) (*dto.ProfileStats, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	completions, err := s.lessonRepo.CountCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}
	best, err := s.submissionRepo.BestScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	userBadges, err := s.badges.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ProfileStats{
		TotalPoints:      user.TotalPoints,
		CurrentStreak:    user.CurrentStreak,
		LongestStreak:    user.LongestStreak,
		LastActivityDate: user.LastActivityDate,
		LessonsCompleted: completions,
		BestScore:        best,
		BadgeCount:       len(userBadges),
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	user.FullName = req.FullName
	if req.Level != "" {
		user.Level = req.Level
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.TelegramHandle != nil {
		user.TelegramHandle = req.TelegramHandle
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.ErrNotFound
		}
		return "", err
	}
	if s.files == nil {
		return "", apperror.ErrInternal
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open avatar file: %w", err)
	}
	defer src.Close()

	url, err := s.files.Upload(ctx, src, "avatars", file.Filename)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	// Drop the previous avatar after the new one is stored.
	if user.AvatarURL != nil && *user.AvatarURL != "" {
		if err := s.files.Delete(ctx, *user.AvatarURL); err != nil {
			log.Printf("profile: failed to delete old avatar for %s: %v", userID, err)
		}
	}

	user.AvatarURL = &url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return url, nil
}

func (s *profileService) Leaderboard(ctx context.Context, limit, offset int) ([]dto.LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	cacheable := offset == 0 && limit == 20
	if cacheable && s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, leaderboardCacheKey).Bytes(); err == nil {
			var entries []dto.LeaderboardEntry
			if json.Unmarshal(cached, &entries) == nil {
				return entries, nil
			}
		}
	}

	users, err := s.userRepo.Leaderboard(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:          offset + i + 1,
			UserID:        u.ID,
			FullName:      u.FullName,
			AvatarURL:     u.AvatarURL,
			TotalPoints:   u.TotalPoints,
			CurrentStreak: u.CurrentStreak,
		})
	}

	if cacheable && s.redisClient != nil {
		if payload, err := json.Marshal(entries); err == nil {
			s.redisClient.Set(ctx, leaderboardCacheKey, payload, leaderboardCacheTTL)
		}
	}

	return entries, nil
}

func (s *profileService) GetBadges(ctx context.Context, userID uuid.UUID) ([]model.UserBadge, error) {
	return s.badges.UserBadges(ctx, userID)
}
