package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB. Post CRUD lives in
// the content service; this core reads posts for target existence, author
// resolution and the cursor-paginated feed.
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	Content       string             `json:"content" bson:"content"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
