package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuslink/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "queue.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.NotificationJob{}))
	return db
}

func testJob() *models.NotificationJob {
	return &models.NotificationJob{
		RecipientID: 2,
		SenderID:    1,
		Kind:        models.KindLike,
		TargetType:  models.TargetPost,
		TargetID:    "42",
		Message:     "liked your post",
	}
}

// dequeueNow expects a job to be immediately claimable.
func dequeueNow(t *testing.T, q Queue) *Delivery {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	delivery, err := q.Dequeue(ctx)
	require.NoError(t, err)
	return delivery
}

// expectEmpty expects Dequeue to block until the deadline.
func expectEmpty(t *testing.T, q Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Both implementations must satisfy the same delivery contract.
func eachQueue(t *testing.T, maxAttempts int, run func(t *testing.T, q Queue)) {
	t.Run("gorm", func(t *testing.T) {
		run(t, NewGormQueue(newTestDB(t),
			WithMaxAttempts(maxAttempts),
			WithPollInterval(10*time.Millisecond)))
	})
	t.Run("memory", func(t *testing.T) {
		run(t, NewMemoryQueue(maxAttempts))
	})
}

func TestEnqueueDequeueAck(t *testing.T) {
	eachQueue(t, 3, func(t *testing.T, q Queue) {
		job := testJob()
		require.NoError(t, q.Enqueue(context.Background(), job))
		assert.NotEmpty(t, job.ID, "enqueue assigns an ID")

		delivery := dequeueNow(t, q)
		assert.Equal(t, job.ID, delivery.Job.ID)
		assert.Equal(t, uint(2), delivery.Job.RecipientID)

		require.NoError(t, delivery.Ack())
		expectEmpty(t, q)
	})
}

func TestNackRedelivers(t *testing.T) {
	eachQueue(t, 3, func(t *testing.T, q Queue) {
		require.NoError(t, q.Enqueue(context.Background(), testJob()))

		delivery := dequeueNow(t, q)
		require.NoError(t, delivery.Nack("store unavailable", 0))

		redelivered := dequeueNow(t, q)
		assert.Equal(t, delivery.Job.ID, redelivered.Job.ID)
		assert.Equal(t, 1, redelivered.Job.Attempts)
		assert.Equal(t, "store unavailable", redelivered.Job.LastError)
		require.NoError(t, redelivered.Ack())
	})
}

func TestNackHonorsRetryAfter(t *testing.T) {
	eachQueue(t, 3, func(t *testing.T, q Queue) {
		require.NoError(t, q.Enqueue(context.Background(), testJob()))

		delivery := dequeueNow(t, q)
		require.NoError(t, delivery.Nack("busy", 10*time.Second))

		// Not claimable until the backoff elapses.
		expectEmpty(t, q)
	})
}

func TestExhaustedJobMovesToDeadLetters(t *testing.T) {
	eachQueue(t, 2, func(t *testing.T, q Queue) {
		job := testJob()
		require.NoError(t, q.Enqueue(context.Background(), job))

		for i := 0; i < 2; i++ {
			delivery := dequeueNow(t, q)
			require.NoError(t, delivery.Nack("store down", 0))
		}

		expectEmpty(t, q)

		dead, err := q.DeadLetters(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, dead, 1)
		assert.Equal(t, job.ID, dead[0].ID)
		assert.Equal(t, uint(2), dead[0].RecipientID, "dead letter preserves the full payload")
		assert.Equal(t, "liked your post", dead[0].Message)
		assert.Equal(t, "store down", dead[0].LastError)
	})
}

func TestRedriveRestoresDeadJob(t *testing.T) {
	eachQueue(t, 1, func(t *testing.T, q Queue) {
		job := testJob()
		require.NoError(t, q.Enqueue(context.Background(), job))

		delivery := dequeueNow(t, q)
		require.NoError(t, delivery.Nack("boom", 0))

		require.NoError(t, q.Redrive(context.Background(), job.ID))

		redelivered := dequeueNow(t, q)
		assert.Equal(t, job.ID, redelivered.Job.ID)
		assert.Equal(t, 0, redelivered.Job.Attempts, "redrive grants a fresh attempt budget")
		require.NoError(t, redelivered.Ack())
	})
}

func TestRedriveUnknownJob(t *testing.T) {
	eachQueue(t, 1, func(t *testing.T, q Queue) {
		err := q.Redrive(context.Background(), "no-such-job")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestGormQueueIsDurableAcrossInstances(t *testing.T) {
	db := newTestDB(t)
	producer := NewGormQueue(db, WithPollInterval(10*time.Millisecond))

	job := testJob()
	require.NoError(t, producer.Enqueue(context.Background(), job))

	// A fresh consumer over the same database sees the job: nothing about
	// delivery depends on in-process state.
	consumer := NewGormQueue(db, WithPollInterval(10*time.Millisecond))
	delivery := dequeueNow(t, consumer)
	assert.Equal(t, job.ID, delivery.Job.ID)
	require.NoError(t, delivery.Ack())
}

func TestGormQueueRedeliversExpiredLease(t *testing.T) {
	db := newTestDB(t)
	q := NewGormQueue(db,
		WithPollInterval(10*time.Millisecond),
		WithLeaseTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), testJob()))

	// Claim and then abandon the delivery, as a crashed consumer would.
	abandoned := dequeueNow(t, q)

	time.Sleep(50 * time.Millisecond)

	redelivered := dequeueNow(t, q)
	assert.Equal(t, abandoned.Job.ID, redelivered.Job.ID)
	require.NoError(t, redelivered.Ack())
}
