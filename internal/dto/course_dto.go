package dto

import "github.com/google/uuid"

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Slug        string `json:"slug" binding:"omitempty,max=255"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required,oneof=speaking writing"`
	Difficulty  string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	SortOrder   int    `json:"sort_order"`
	IsPublished bool   `json:"is_published"`
}

type UpdateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Slug        string `json:"slug" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required,oneof=speaking writing"`
	Difficulty  string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	SortOrder   int    `json:"sort_order"`
	IsPublished bool   `json:"is_published"`
}

type CreateLessonRequest struct {
	CourseID     string  `json:"course_id" binding:"required,uuid"`
	Title        string  `json:"title" binding:"required,min=3,max=255"`
	Slug         string  `json:"slug" binding:"omitempty,max=255"`
	Content      string  `json:"content" binding:"required"`
	Summary      *string `json:"summary"`
	SortOrder    int     `json:"sort_order"`
	PointsReward int     `json:"points_reward"`
	IsPublished  bool    `json:"is_published"`
}

type CompleteLessonResponse struct {
	Completed        bool `json:"completed"`
	AlreadyCompleted bool `json:"already_completed"`
}

type CourseProgress struct {
	CourseID           uuid.UUID   `json:"course_id"`
	TotalLessons       int         `json:"total_lessons"`
	CompletedLessonIDs []uuid.UUID `json:"completed_lesson_ids"`
}
