package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/backend/internal/dispatch"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/repositories"
)

func TestToggleOnReportsChange(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	ctx := context.Background()

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.False(t, changed, "repeat toggle must be a silent no-op")

	exists, err := f.ledger.Exists(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestToggleOffReportsChange(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	ctx := context.Background()

	changed, err := f.ledger.ToggleOff(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.False(t, changed, "removing an absent engagement is not an error")

	_, err = f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)

	changed, err = f.ledger.ToggleOff(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.True(t, changed)

	exists, err := f.ledger.Exists(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestToggleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		actorID    uint
		targetType string
		targetID   string
		kind       string
	}{
		{"unknown kind", 1, models.TargetPost, "42", "wave"},
		{"unknown target type", 1, "story", "42", models.KindLike},
		{"empty target id", 1, models.TargetPost, "", models.KindLike},
		{"follow cannot target a post", 1, models.TargetPost, "42", models.KindFollow},
		{"membership cannot target an actor", 1, models.TargetActor, "2", models.KindMembership},
		{"self follow", 5, models.TargetActor, "5", models.KindFollow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.ToggleOn(ctx, tc.actorID, tc.targetType, tc.targetID, tc.kind)
			assert.True(t, IsValidation(err), "want ValidationError, got %v", err)

			_, err = f.ledger.ToggleOff(ctx, tc.actorID, tc.targetType, tc.targetID, tc.kind)
			assert.True(t, IsValidation(err), "want ValidationError, got %v", err)
		})
	}
	assert.Equal(t, 0, f.queue.Len(), "rejected toggles must not enqueue")
}

func TestToggleOnMissingTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "no-such-post", models.KindLike)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.ledger.ToggleOn(ctx, 1, models.TargetActor, "99", models.KindFollow)
	assert.ErrorIs(t, err, ErrNotFound, "following an unknown user must fail")
}

func TestToggleOnEnqueuesOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	ctx := context.Background()

	_, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)

	job := f.drainJob(t)
	assert.Equal(t, uint(2), job.RecipientID)
	assert.Equal(t, uint(1), job.SenderID)
	assert.Equal(t, models.KindLike, job.Kind)
	assert.Equal(t, "42", job.TargetID)
	assert.Equal(t, "liked your post", job.Message)

	// No-op repeat and toggle-off both stay silent.
	_, err = f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	_, err = f.ledger.ToggleOff(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.Equal(t, 0, f.queue.Len())
}

func TestToggleOnOwnContentDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 1
	ctx := context.Background()

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.True(t, changed, "the engagement itself still commits")
	assert.Equal(t, 0, f.queue.Len(), "no one to notify about your own post")
}

func TestFollowNotifiesFollowedUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, 2, "member")
	ctx := context.Background()

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetActor, "2", models.KindFollow)
	require.NoError(t, err)
	assert.True(t, changed)

	job := f.drainJob(t)
	assert.Equal(t, uint(2), job.RecipientID)
	assert.Equal(t, "started following you", job.Message)
}

func TestMembershipNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Group{ID: 5, Name: "chess club", OwnerID: 3}).Error)
	ctx := context.Background()

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetGroup, "5", models.KindMembership)
	require.NoError(t, err)
	assert.True(t, changed)

	job := f.drainJob(t)
	assert.Equal(t, uint(3), job.RecipientID)
	assert.Equal(t, "joined your group", job.Message)
}

func TestEnqueueFailureDoesNotRollBackToggle(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	f.ledger.queue = brokenQueue{}
	ctx := context.Background()

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err, "an unreachable queue must not surface to the caller")
	assert.True(t, changed)

	exists, err := f.ledger.Exists(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.True(t, exists, "the store write committed before the enqueue attempt")
}

func TestCount(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 9
	ctx := context.Background()

	for actor := uint(1); actor <= 3; actor++ {
		_, err := f.ledger.ToggleOn(ctx, actor, models.TargetPost, "42", models.KindLike)
		require.NoError(t, err)
	}

	count, err := f.ledger.Count(ctx, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = f.ledger.Count(ctx, models.TargetPost, "42", "wave")
	assert.True(t, IsValidation(err))
}

// TestLikeFlowsThroughToNotificationList walks the whole pipeline: a like
// lands in the ledger, the dispatcher drains the queue, and the post author
// sees exactly one notification.
func TestLikeFlowsThroughToNotificationList(t *testing.T) {
	f := newFixture(t)
	f.posts.authors["42"] = 2
	ctx := context.Background()

	notifications := repositories.NewPostgresNotificationRepository(f.db)
	dispatcher := dispatch.New(f.queue, notifications)

	changed, err := f.ledger.ToggleOn(ctx, 1, models.TargetPost, "42", models.KindLike)
	require.NoError(t, err)
	require.True(t, changed)

	delivery, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	dispatcher.Handle(delivery)

	svc := NewNotificationService(notifications)
	items, next, err := svc.List(ctx, 2, "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, next)
	assert.Equal(t, uint(1), items[0].SenderID)
	assert.Equal(t, models.KindLike, items[0].Kind)
	assert.False(t, items[0].Read())
}
