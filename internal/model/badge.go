package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BadgeCategoryStreak     = "streak"
	BadgeCategoryCompletion = "completion"
	BadgeCategoryCommunity  = "community"
	BadgeCategoryScore      = "score"
	BadgeCategorySpecial    = "special"
)

// Badge criteria is a JSON document, e.g. {"type":"streak","days":7}.
// See service.BadgeCriteria for the recognized shapes.
type Badge struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	IconURL     *string        `gorm:"type:text" json:"icon_url,omitempty"`
	Category    string         `gorm:"size:20;not null" json:"category"`
	Criteria    datatypes.JSON `gorm:"not null" json:"criteria"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}

type UserBadge struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BadgeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"constraint:OnDelete:CASCADE" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) (err error) {
	if ub.ID == uuid.Nil {
		ub.ID, err = uuid.NewV7()
	}
	return
}
