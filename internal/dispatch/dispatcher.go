// Package dispatch consumes notification jobs from the work queue and
// materializes notification rows. It runs decoupled from the request path,
// typically as its own process (cmd/dispatcher).
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/queue"
	"github.com/campuslink/backend/internal/repositories"
)

// Dispatcher defaults.
const (
	DefaultDedupeWindow = 24 * time.Hour
	DefaultBaseBackoff  = time.Second
	DefaultMaxBackoff   = 5 * time.Minute
)

// Dispatcher turns NotificationJob messages into notification rows.
// Handling is idempotent under redelivery: a job whose (recipient, sender,
// kind, target) already produced a notification inside the dedupe window is
// acked without a second write. Transient store failures are nacked with
// exponential backoff; the queue dead-letters the job once its attempt
// budget is spent.
type Dispatcher struct {
	queue         queue.Queue
	notifications repositories.NotificationRepository
	dedupeWindow  time.Duration
	baseBackoff   time.Duration
	maxBackoff    time.Duration
}

// Option tunes a Dispatcher.
type Option func(*Dispatcher)

// WithDedupeWindow sets how far back the duplicate check looks.
func WithDedupeWindow(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.dedupeWindow = d }
}

// WithBackoff sets the retry backoff base and cap.
func WithBackoff(base, max time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.baseBackoff = base
		dp.maxBackoff = max
	}
}

// New creates a Dispatcher consuming q and writing to notifications.
func New(q queue.Queue, notifications repositories.NotificationRepository, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:         q,
		notifications: notifications,
		dedupeWindow:  DefaultDedupeWindow,
		baseBackoff:   DefaultBaseBackoff,
		maxBackoff:    DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run consumes jobs until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Println("dispatcher: consuming notification jobs")
	for {
		delivery, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("dispatcher: shutting down")
				return nil
			}
			return err
		}
		d.Handle(delivery)
	}
}

// Handle settles one delivery: ack on success or permanent garbage, nack
// with backoff on transient failure.
func (d *Dispatcher) Handle(delivery *queue.Delivery) {
	job := delivery.Job

	if reason := malformed(job); reason != "" {
		// Permanent: retrying can never fix a malformed job.
		log.Printf("dispatcher: dropping job %s: %s", job.ID, reason)
		if err := delivery.Ack(); err != nil {
			log.Printf("dispatcher: ack of dropped job %s failed: %v", job.ID, err)
		}
		return
	}

	dup, err := d.notifications.ExistsRecent(
		job.RecipientID, job.SenderID, job.Kind, job.TargetType, job.TargetID,
		time.Now().Add(-d.dedupeWindow),
	)
	if err != nil {
		d.retry(delivery, err)
		return
	}
	if dup {
		// Redelivered or duplicate-looking job; the row already exists.
		if err := delivery.Ack(); err != nil {
			log.Printf("dispatcher: ack of duplicate job %s failed: %v", job.ID, err)
		}
		return
	}

	err = d.notifications.Create(&models.Notification{
		RecipientID: job.RecipientID,
		SenderID:    job.SenderID,
		Kind:        job.Kind,
		TargetType:  job.TargetType,
		TargetID:    job.TargetID,
		Message:     job.Message,
	})
	if err != nil {
		d.retry(delivery, err)
		return
	}

	if err := delivery.Ack(); err != nil {
		log.Printf("dispatcher: ack of job %s failed: %v", job.ID, err)
	}
}

func (d *Dispatcher) retry(delivery *queue.Delivery, cause error) {
	job := delivery.Job
	backoff := d.backoff(job.Attempts)
	log.Printf("dispatcher: job %s attempt %d failed, retrying in %s: %v",
		job.ID, job.Attempts+1, backoff, cause)
	if err := delivery.Nack(cause.Error(), backoff); err != nil {
		log.Printf("dispatcher: nack of job %s failed: %v", job.ID, err)
	}
}

// backoff returns baseBackoff * 2^attempts, capped at maxBackoff.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	backoff := d.baseBackoff
	for i := 0; i < attempts && backoff < d.maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > d.maxBackoff {
		backoff = d.maxBackoff
	}
	return backoff
}

// malformed returns a non-empty reason when the job can never be handled.
func malformed(job *models.NotificationJob) string {
	switch {
	case job.RecipientID == 0:
		return "missing recipient"
	case job.Kind == "":
		return "missing kind"
	case job.TargetType == "" || job.TargetID == "":
		return "missing target"
	}
	return ""
}
