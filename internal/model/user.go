package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// User is the profile row: identity plus the denormalized gamification
// state (points, streaks) mutated by the gamification service.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	FullName       string    `gorm:"size:100;not null" json:"full_name"`
	AvatarURL      *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	GoogleID       *string   `gorm:"size:100;index" json:"-"`
	Role           string    `gorm:"size:20;default:student;not null" json:"role"`
	Level          string    `gorm:"size:20;default:beginner;not null" json:"level"`
	Bio            *string   `gorm:"type:text" json:"bio,omitempty"`
	TelegramHandle *string   `gorm:"size:100" json:"telegram_handle,omitempty"`

	TotalPoints      int        `gorm:"default:0;not null" json:"total_points"`
	CurrentStreak    int        `gorm:"default:0;not null" json:"current_streak"`
	LongestStreak    int        `gorm:"default:0;not null" json:"longest_streak"`
	LastActivityDate *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}
