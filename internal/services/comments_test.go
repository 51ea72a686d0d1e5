package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/repositories"
)

func newCommentService(t *testing.T, f *fixture) *CommentService {
	t.Helper()
	return NewCommentService(repositories.NewPostgresCommentRepository(f.db), f.posts, f.ledger)
}

func TestCreateCommentNotifiesPostAuthor(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	svc := newCommentService(t, f)
	ctx := context.Background()

	comment, err := svc.Create(ctx, 1, "42", "nice shot")
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, "42", comment.PostID)
	assert.Equal(t, uint(1), comment.AuthorID)

	job := f.drainJob(t)
	assert.Equal(t, uint(2), job.RecipientID)
	assert.Equal(t, "comment", job.Kind)
	assert.Equal(t, "42", job.TargetID)
	assert.Equal(t, "commented on your post", job.Message)
}

func TestCreateCommentOnOwnPostStaysSilent(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 1
	svc := newCommentService(t, f)

	_, err := svc.Create(context.Background(), 1, "42", "adding context")
	require.NoError(t, err)
	assert.Equal(t, 0, f.queue.Len())
}

func TestCreateCommentValidation(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	svc := newCommentService(t, f)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "42", "")
	assert.True(t, IsValidation(err), "want ValidationError, got %v", err)

	_, err = svc.Create(ctx, 1, "no-such-post", "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, f.queue.Len())
}

func TestListByPostPagesOldestFirst(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	repo := repositories.NewPostgresCommentRepository(f.db)
	svc := newCommentService(t, f)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, repo.CreateComment(&models.Comment{
			PostID:    "42",
			AuthorID:  1,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	page1, next, err := svc.ListByPost(ctx, "42", "", pagination.Asc, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	require.NotEmpty(t, next)
	assert.Equal(t, "comment 0", page1[0].Content, "conversations read oldest first")

	page2, next, err := svc.ListByPost(ctx, "42", next, pagination.Asc, 10)
	require.NoError(t, err)
	require.Len(t, page2, 10)
	assert.Equal(t, "comment 10", page2[0].Content)
	require.NotEmpty(t, next)

	page3, next, err := svc.ListByPost(ctx, "42", next, pagination.Asc, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)
	assert.Empty(t, next, "a short page ends the scan")
}

func TestListByPostUnknownPost(t *testing.T) {
	f := newFixture(t)
	svc := newCommentService(t, f)

	_, _, err := svc.ListByPost(context.Background(), "no-such-post", "", pagination.Asc, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
