package repositories

import (
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)

	// ListByPost returns one page of a post's comments positioned by
	// cursor. Direction asc reads the conversation oldest-first.
	ListByPost(postID string, cur *pagination.Cursor, dir pagination.Direction, limit int) ([]models.Comment, error)

	DeleteComment(id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves one keyset page of comments for a post.
func (r *PostgresCommentRepository) ListByPost(postID string, cur *pagination.Cursor, dir pagination.Direction, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.
		Where("post_id = ?", postID).
		Scopes(pagination.Scope("created_at", cur, dir)).
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// DeleteComment deletes a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) DeleteComment(id uint) error {
	return r.db.Delete(&models.Comment{}, id).Error
}
