package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/backend/internal/models"
)

// MemoryQueue is an in-process Queue with the same delivery contract as
// GormQueue, for tests and single-process development. Not durable.
type MemoryQueue struct {
	mu          sync.Mutex
	jobs        []*models.NotificationJob
	dead        []*models.NotificationJob
	maxAttempts int
	signal      chan struct{} // coalesced wakeup, buffer of 1
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue(maxAttempts int) *MemoryQueue {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &MemoryQueue{
		maxAttempts: maxAttempts,
		signal:      make(chan struct{}, 1),
	}
}

// Enqueue adds the job to the back of the queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *models.NotificationJob) error {
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

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	q.wake()
	return nil
}

// Dequeue claims the first ready job, blocking until one is available or
// ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		if job := q.claim(); job != nil {
			return &Delivery{Job: job, q: q}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) claim() *models.NotificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending && !job.NextAttemptAt.After(now) {
			job.Status = models.JobStatusLeased
			return job
		}
	}
	return nil
}

func (q *MemoryQueue) ack(job *models.NotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Status = models.JobStatusDone
	q.remove(job.ID)
	return nil
}

func (q *MemoryQueue) nack(job *models.NotificationJob, reason string, retryAfter time.Duration) error {
	q.mu.Lock()
	job.Attempts++
	job.LastError = reason
	if job.Attempts >= q.maxAttempts {
		job.Status = models.JobStatusDead
		q.remove(job.ID)
		q.dead = append(q.dead, job)
	} else {
		job.Status = models.JobStatusPending
		job.NextAttemptAt = time.Now().Add(retryAfter)
	}
	q.mu.Unlock()
	q.wake()
	return nil
}

// remove drops the job from the live slice; caller holds the lock.
func (q *MemoryQueue) remove(id string) {
	for i, j := range q.jobs {
		if j.ID == id {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return
		}
	}
}

// DeadLetters lists dead jobs, newest first.
func (q *MemoryQueue) DeadLetters(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.NotificationJob
	for i := len(q.dead) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *q.dead[i])
	}
	return out, nil
}

// Redrive returns a dead job to the live queue with a fresh attempt budget.
func (q *MemoryQueue) Redrive(ctx context.Context, jobID string) error {
	q.mu.Lock()
	for i, j := range q.dead {
		if j.ID == jobID {
			q.dead = append(q.dead[:i], q.dead[i+1:]...)
			j.Status = models.JobStatusPending
			j.Attempts = 0
			j.NextAttemptAt = time.Now()
			q.jobs = append(q.jobs, j)
			q.mu.Unlock()
			q.wake()
			return nil
		}
	}
	q.mu.Unlock()
	return ErrJobNotFound
}

// Len reports the number of live (pending or leased) jobs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *MemoryQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
