package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssignmentWritingTask1  = "writing_task1"
	AssignmentWritingTask2  = "writing_task2"
	AssignmentSpeakingPart1 = "speaking_part1"
	AssignmentSpeakingPart2 = "speaking_part2"
	AssignmentSpeakingPart3 = "speaking_part3"
)

const (
	SubmissionPending  = "pending"
	SubmissionInReview = "in_review"
	SubmissionGraded   = "graded"
)

type Assignment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID       *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Course         *Course    `gorm:"constraint:OnDelete:SET NULL" json:"course,omitempty"`
	LessonID       *uuid.UUID `gorm:"type:uuid" json:"lesson_id,omitempty"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text;not null" json:"description"`
	AssignmentType string     `gorm:"size:30;not null" json:"assignment_type"`
	MaxScore       float64    `gorm:"default:9;not null" json:"max_score"`
	PointsReward   int        `gorm:"default:20;not null" json:"points_reward"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	IsPublished    bool       `gorm:"default:false;not null" json:"is_published"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// Submission lifecycle: pending -> in_review -> graded. Grading sets
// score, feedback, grader and timestamp in a single update together
// with the status change.
type Submission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"assignment_id"`
	Assignment   Assignment `gorm:"constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User       `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	FileURL      *string    `gorm:"type:text" json:"file_url,omitempty"`
	Status       string     `gorm:"size:20;default:pending;not null" json:"status"`
	Score        *float64   `json:"score,omitempty"`
	Feedback     *string    `gorm:"type:text" json:"feedback,omitempty"`
	GradedBy     *uuid.UUID `gorm:"type:uuid" json:"graded_by,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	SubmittedAt  time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}
