package services

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/campuslink/backend/internal/repositories"
)

// TargetResolver checks that an engagement target exists and reports who
// owns it (the notification recipient). Target records themselves are
// owned by external services; this is the only view of them the ledger
// needs.
type TargetResolver interface {
	// Resolve returns the owner (author, followed user, group owner,
	// event organizer) of the target, or ErrNotFound.
	Resolve(ctx context.Context, targetType, targetID string) (ownerID uint, err error)
}

// StoreTargetResolver resolves targets against the post, comment, user,
// group and event stores.
type StoreTargetResolver struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	events   repositories.EventRepository
}

// NewStoreTargetResolver creates a resolver over the given stores.
func NewStoreTargetResolver(
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	events repositories.EventRepository,
) *StoreTargetResolver {
	return &StoreTargetResolver{
		posts:    posts,
		comments: comments,
		users:    users,
		groups:   groups,
		events:   events,
	}
}

// Resolve looks the target up in the store matching its type.
func (r *StoreTargetResolver) Resolve(ctx context.Context, targetType, targetID string) (uint, error) {
	switch targetType {
	case "post":
		return r.resolvePost(ctx, targetID)
	case "comment":
		id, err := parseNumericID(targetID)
		if err != nil {
			return 0, ErrNotFound
		}
		comment, err := r.comments.GetCommentByID(id)
		if err != nil {
			return 0, translateLookupErr(err)
		}
		return comment.AuthorID, nil
	case "actor":
		id, err := parseNumericID(targetID)
		if err != nil {
			return 0, ErrNotFound
		}
		user, err := r.users.GetUserByID(id)
		if err != nil {
			return 0, translateLookupErr(err)
		}
		return user.ID, nil
	case "group":
		id, err := parseNumericID(targetID)
		if err != nil {
			return 0, ErrNotFound
		}
		group, err := r.groups.GetGroupByID(id)
		if err != nil {
			return 0, translateLookupErr(err)
		}
		return group.OwnerID, nil
	case "event":
		id, err := parseNumericID(targetID)
		if err != nil {
			return 0, ErrNotFound
		}
		event, err := r.events.GetEventByID(id)
		if err != nil {
			return 0, translateLookupErr(err)
		}
		return event.OrganizerID, nil
	}
	return 0, &ValidationError{Field: "target_type", Reason: "unknown target type " + targetType}
}

func (r *StoreTargetResolver) resolvePost(ctx context.Context, targetID string) (uint, error) {
	authorID, err := r.posts.AuthorID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return 0, ErrNotFound
		}
		return 0, &TransientError{Err: err}
	}
	return authorID, nil
}

func parseNumericID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	return uint(id), err
}

// translateLookupErr folds a gorm lookup failure into the service error
// taxonomy: a missing row is ErrNotFound, anything else is retryable.
func translateLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &TransientError{Err: err}
}
