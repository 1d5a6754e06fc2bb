package dto

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Content  string `json:"content" binding:"required,min=10"`
	Category string `json:"category" binding:"omitempty,oneof=general speaking writing tips motivation question"`
}

type UpdatePostRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Content  string `json:"content" binding:"required,min=10"`
	Category string `json:"category" binding:"omitempty,oneof=general speaking writing tips motivation question"`
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required,min=1"`
	ParentID *string `json:"parent_id"`
}

type PostFilter struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Category string `form:"category"`
}

type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}
