package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CourseCategorySpeaking = "speaking"
	CourseCategoryWriting  = "writing"
)

type Course struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Category      string     `gorm:"size:20;not null" json:"category"` // 'speaking', 'writing'
	Difficulty    string     `gorm:"size:20;not null" json:"difficulty"`
	CoverImageURL *string    `gorm:"type:text" json:"cover_image_url,omitempty"`
	IsPublished   bool       `gorm:"default:false;not null" json:"is_published"`
	SortOrder     int        `gorm:"default:0;not null" json:"sort_order"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	Lessons       []Lesson   `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Lesson struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course       Course    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;not null" json:"slug"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Summary      *string   `gorm:"type:text" json:"summary,omitempty"`
	SortOrder    int       `gorm:"default:0;not null" json:"sort_order"`
	PointsReward int       `gorm:"default:10;not null" json:"points_reward"`
	IsPublished  bool      `gorm:"default:false;not null" json:"is_published"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

// Enrollment links a user to a course. At most one per (user, course),
// enforced by the unique index.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	User       User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	Course     Course    `gorm:"constraint:OnDelete:CASCADE" json:"course,omitempty"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID, err = uuid.NewV7()
	}
	return
}

// LessonCompletion is a fact record: its existence means the user
// finished the lesson. Never mutated. The unique index on
// (user_id, lesson_id) is the idempotency guard for point awards.
type LessonCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_lesson" json:"user_id"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	LessonID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_lesson" json:"lesson_id"`
	Lesson      Lesson    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

func (lc *LessonCompletion) BeforeCreate(tx *gorm.DB) (err error) {
	if lc.ID == uuid.Nil {
		lc.ID, err = uuid.NewV7()
	}
	return
}
