package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey;index:idx_post_created,priority:3"`
	PostID    string    `json:"post_id" gorm:"index;index:idx_post_created,priority:1"` // MongoDB ObjectID as string
	AuthorID  uint      `json:"author_id" gorm:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_created,priority:2"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
