package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/repositories"
)

// CommentService handles comment creation (a notification-producing
// action) and cursor-paginated conversation reads.
type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	ledger   *Ledger
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, ledger *Ledger) *CommentService {
	return &CommentService{comments: comments, posts: posts, ledger: ledger}
}

// Create stores the comment and fans a notification out to the post author
// through the same queue as engagement toggles.
func (s *CommentService) Create(ctx context.Context, actorID uint, postID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	authorID, err := s.posts.AuthorID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Err: err}
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: actorID,
		Content:  content,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, &TransientError{Err: err}
	}

	s.ledger.EmitNotification(ctx, &models.NotificationJob{
		RecipientID: authorID,
		SenderID:    actorID,
		Kind:        "comment",
		TargetType:  models.TargetPost,
		TargetID:    postID,
		Message:     "commented on your post",
	})
	return comment, nil
}

// ListByPost returns one page of a post's comments. Conversations read
// oldest-first by default; pass dir=desc for newest-first.
func (s *CommentService) ListByPost(ctx context.Context, postID, cursorToken string, dir pagination.Direction, limit int) ([]models.Comment, string, error) {
	cur, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, "", &ValidationError{Field: "cursor", Reason: err.Error()}
	}
	if dir != pagination.Desc {
		dir = pagination.Asc
	}
	limit = pagination.Clamp(limit)

	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, "", &TransientError{Err: err}
	}
	if !exists {
		return nil, "", ErrNotFound
	}

	items, err := s.comments.ListByPost(postID, cur, dir, limit)
	if err != nil {
		return nil, "", &TransientError{Err: err}
	}

	var next string
	if len(items) == limit {
		last := items[len(items)-1]
		next = pagination.Encode(pagination.Cursor{
			Time: last.CreatedAt,
			ID:   strconv.FormatUint(uint64(last.ID), 10),
		})
	}
	return items, next, nil
}
