// Package queue defines the work queue contract between the engagement
// ledger (producer) and the notification dispatcher (consumer), with
// at-least-once delivery: a job stays claimable until explicitly acked,
// a nack schedules redelivery, and jobs that exhaust their attempts move
// to a dead-letter channel with the payload preserved for manual replay.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/backend/internal/models"
)

// ErrJobNotFound is returned by Redrive for an unknown or non-dead job ID.
var ErrJobNotFound = errors.New("job not found")

// Queue is the transport between ledger and dispatcher. Implementations
// must deliver each enqueued job at least once; consumers must tolerate
// redelivery.
type Queue interface {
	// Enqueue makes the job available to consumers. Jobs without an ID are
	// assigned one.
	Enqueue(ctx context.Context, job *models.NotificationJob) error

	// Dequeue blocks until a job is claimable or ctx is done. The returned
	// delivery must be settled with exactly one Ack or Nack call.
	Dequeue(ctx context.Context) (*Delivery, error)

	// DeadLetters lists jobs that exhausted their delivery attempts,
	// newest first.
	DeadLetters(ctx context.Context, limit int) ([]models.NotificationJob, error)

	// Redrive moves a dead job back to the pending state for another
	// round of delivery attempts.
	Redrive(ctx context.Context, jobID string) error
}

// settler is the queue-side half of a Delivery.
type settler interface {
	ack(job *models.NotificationJob) error
	nack(job *models.NotificationJob, reason string, retryAfter time.Duration) error
}

// Delivery is one claimed job. Ack removes it from the queue; Nack returns
// it for redelivery after retryAfter, or dead-letters it once the queue's
// attempt budget is spent.
type Delivery struct {
	Job *models.NotificationJob
	q   settler
}

// Ack marks the job as successfully handled.
func (d *Delivery) Ack() error {
	return d.q.ack(d.Job)
}

// Nack records a failed handling attempt and schedules redelivery.
func (d *Delivery) Nack(reason string, retryAfter time.Duration) error {
	return d.q.nack(d.Job, reason, retryAfter)
}
