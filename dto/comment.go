package dto

type CommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *int   `json:"parent_id" binding:"omitempty,gt=0"`
}

type EditCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
