package dto

type CreateAssignmentRequest struct {
	Title          string  `json:"title" binding:"required,min=3,max=255"`
	Description    string  `json:"description" binding:"required"`
	AssignmentType string  `json:"assignment_type" binding:"required,oneof=writing_task1 writing_task2 speaking_part1 speaking_part2 speaking_part3"`
	CourseID       *string `json:"course_id" binding:"omitempty,uuid"`
	DueDate        *string `json:"due_date"`
	PointsReward   int     `json:"points_reward"`
	IsPublished    bool    `json:"is_published"`
}

type SubmitAssignmentRequest struct {
	Content string  `json:"content" binding:"required,min=10"`
	FileURL *string `json:"file_url"`
}

type GradeSubmissionRequest struct {
	// Pointer so a legitimate 0.0 band score passes the required check.
	Score    *float64 `json:"score" binding:"required"`
	Feedback string   `json:"feedback"`
}
