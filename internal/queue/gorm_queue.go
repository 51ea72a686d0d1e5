package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuslink/backend/internal/models"
)

// Defaults for GormQueue tuning knobs.
const (
	DefaultMaxAttempts  = 5
	DefaultPollInterval = time.Second
	DefaultLeaseTimeout = 30 * time.Second
)

// GormQueue is a durable queue backed by the notification_jobs table. The
// table is the source of truth: a claimed job is leased (not removed), so a
// consumer crash just lets the lease expire and the job is delivered again.
// A signal channel short-circuits the poll interval for enqueues from the
// same process; cross-process consumers fall back to polling.
type GormQueue struct {
	db           *gorm.DB
	maxAttempts  int
	pollInterval time.Duration
	leaseTimeout time.Duration
	signal       chan struct{}
}

// GormQueueOption tunes a GormQueue.
type GormQueueOption func(*GormQueue)

// WithMaxAttempts bounds delivery attempts before dead-lettering.
func WithMaxAttempts(n int) GormQueueOption {
	return func(q *GormQueue) { q.maxAttempts = n }
}

// WithPollInterval sets how often Dequeue re-checks the table when idle.
func WithPollInterval(d time.Duration) GormQueueOption {
	return func(q *GormQueue) { q.pollInterval = d }
}

// WithLeaseTimeout sets how long a claimed job stays invisible before it is
// considered abandoned and redelivered.
func WithLeaseTimeout(d time.Duration) GormQueueOption {
	return func(q *GormQueue) { q.leaseTimeout = d }
}

// NewGormQueue creates a durable queue over db.
func NewGormQueue(db *gorm.DB, opts ...GormQueueOption) *GormQueue {
	q := &GormQueue{
		db:           db,
		maxAttempts:  DefaultMaxAttempts,
		pollInterval: DefaultPollInterval,
		leaseTimeout: DefaultLeaseTimeout,
		signal:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue persists the job in the pending state and wakes a local consumer.
func (q *GormQueue) Enqueue(ctx context.Context, job *models.NotificationJob) error {
	now := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.JobStatusPending
	job.Attempts = 0
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = now
	}
	job.NextAttemptAt = now

	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return err
	}
	q.wake()
	return nil
}

// Dequeue claims the oldest ready job, blocking until one is available or
// ctx is done.
func (q *GormQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		job, err := q.claim(ctx)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return &Delivery{Job: job, q: q}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		case <-time.After(q.pollInterval):
		}
	}
}

// claim finds one ready job and flips it to leased. The conditional update
// on status makes the claim safe against a concurrent consumer taking the
// same row: only one UPDATE wins.
func (q *GormQueue) claim(ctx context.Context) (*models.NotificationJob, error) {
	now := time.Now()
	var job models.NotificationJob
	err := q.db.WithContext(ctx).
		Where("(status = ? AND next_attempt_at <= ?) OR (status = ? AND leased_until <= ?)",
			models.JobStatusPending, now, models.JobStatusLeased, now).
		Order("next_attempt_at ASC").
		First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := q.db.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("id = ? AND status = ?", job.ID, job.Status).
		Updates(map[string]interface{}{
			"status":       models.JobStatusLeased,
			"leased_until": now.Add(q.leaseTimeout),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race for this row; caller will try again.
		return nil, nil
	}
	job.Status = models.JobStatusLeased
	return &job, nil
}

func (q *GormQueue) ack(job *models.NotificationJob) error {
	return q.db.Model(&models.NotificationJob{}).
		Where("id = ?", job.ID).
		Update("status", models.JobStatusDone).Error
}

func (q *GormQueue) nack(job *models.NotificationJob, reason string, retryAfter time.Duration) error {
	attempts := job.Attempts + 1
	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": reason,
	}
	if attempts >= q.maxAttempts {
		updates["status"] = models.JobStatusDead
	} else {
		updates["status"] = models.JobStatusPending
		updates["next_attempt_at"] = time.Now().Add(retryAfter)
	}
	if err := q.db.Model(&models.NotificationJob{}).
		Where("id = ?", job.ID).
		Updates(updates).Error; err != nil {
		return err
	}
	job.Attempts = attempts
	q.wake()
	return nil
}

// DeadLetters lists dead jobs, most recently enqueued first.
func (q *GormQueue) DeadLetters(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	var jobs []models.NotificationJob
	err := q.db.WithContext(ctx).
		Where("status = ?", models.JobStatusDead).
		Order("enqueued_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// Redrive returns a dead job to the pending state with a fresh attempt
// budget.
func (q *GormQueue) Redrive(ctx context.Context, jobID string) error {
	res := q.db.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusDead).
		Updates(map[string]interface{}{
			"status":          models.JobStatusPending,
			"attempts":        0,
			"next_attempt_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	q.wake()
	return nil
}

// wake signals a local Dequeue without blocking; a buffer of 1 coalesces
// bursts of enqueues into one wakeup.
func (q *GormQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
