package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	FullName       string  `json:"full_name" binding:"required,min=2,max=100"`
	Level          string  `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
	TelegramHandle *string `json:"telegram_handle" binding:"omitempty,max=100"`
}

type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	FullName      string    `json:"full_name"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
}

type ProfileStats struct {
	TotalPoints      int        `json:"total_points"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	LessonsCompleted int64      `json:"lessons_completed"`
	BestScore        float64    `json:"best_score"`
	BadgeCount       int        `json:"badge_count"`
}
