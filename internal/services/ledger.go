package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/queue"
	"github.com/campuslink/backend/internal/repositories"
)

// DefaultEnqueueTimeout bounds how long a toggle waits on the queue after
// its store write has committed.
const DefaultEnqueueTimeout = 3 * time.Second

// Ledger enforces idempotent toggle semantics over the engagement store
// and emits a notification job on every state change that concerns someone
// other than the actor. The store write and the enqueue are two separately
// committed steps: an enqueue failure never rolls back the toggle.
type Ledger struct {
	engagements    repositories.EngagementRepository
	resolver       TargetResolver
	queue          queue.Queue
	enqueueTimeout time.Duration
}

// NewLedger creates a Ledger.
func NewLedger(engagements repositories.EngagementRepository, resolver TargetResolver, q queue.Queue) *Ledger {
	return &Ledger{
		engagements:    engagements,
		resolver:       resolver,
		queue:          q,
		enqueueTimeout: DefaultEnqueueTimeout,
	}
}

// ToggleOn creates the engagement if absent. Returns changed=false when it
// already existed, including when a concurrent duplicate request won the
// insert race. Only a state change enqueues a notification job.
func (l *Ledger) ToggleOn(ctx context.Context, actorID uint, targetType, targetID, kind string) (bool, error) {
	if err := validateToggle(actorID, targetType, targetID, kind); err != nil {
		return false, err
	}

	ownerID, err := l.resolver.Resolve(ctx, targetType, targetID)
	if err != nil {
		return false, err
	}

	created, err := l.engagements.InsertIfAbsent(&models.Engagement{
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Kind:       kind,
	})
	if err != nil {
		return false, &TransientError{Err: err}
	}
	if !created {
		return false, nil
	}

	// Acting on your own content changes state but notifies no one.
	if ownerID != actorID {
		l.enqueue(ctx, &models.NotificationJob{
			RecipientID: ownerID,
			SenderID:    actorID,
			Kind:        kind,
			TargetType:  targetType,
			TargetID:    targetID,
			Message:     notificationMessage(kind, targetType),
		})
	}
	return true, nil
}

// ToggleOff deletes the engagement if present. Deleting an absent
// engagement returns changed=false, never an error.
func (l *Ledger) ToggleOff(ctx context.Context, actorID uint, targetType, targetID, kind string) (bool, error) {
	if err := validateToggle(actorID, targetType, targetID, kind); err != nil {
		return false, err
	}

	deleted, err := l.engagements.DeleteIfPresent(actorID, targetType, targetID, kind)
	if err != nil {
		return false, &TransientError{Err: err}
	}
	return deleted, nil
}

// Exists reports whether the actor currently has the engagement.
func (l *Ledger) Exists(ctx context.Context, actorID uint, targetType, targetID, kind string) (bool, error) {
	if err := validateToggle(actorID, targetType, targetID, kind); err != nil {
		return false, err
	}
	exists, err := l.engagements.Exists(actorID, targetType, targetID, kind)
	if err != nil {
		return false, &TransientError{Err: err}
	}
	return exists, nil
}

// Count returns the number of engagements of the given kind on a target.
// Eventually consistent with concurrent toggles.
func (l *Ledger) Count(ctx context.Context, targetType, targetID, kind string) (int64, error) {
	if !models.ValidKind(kind) {
		return 0, &ValidationError{Field: "kind", Reason: "unknown kind " + kind}
	}
	if !models.ValidTargetType(targetType) {
		return 0, &ValidationError{Field: "target_type", Reason: "unknown target type " + targetType}
	}
	count, err := l.engagements.Count(targetType, targetID, kind)
	if err != nil {
		return 0, &TransientError{Err: err}
	}
	return count, nil
}

// EmitNotification enqueues a job for a non-toggle action (e.g. a new
// comment) through the same fan-out path.
func (l *Ledger) EmitNotification(ctx context.Context, job *models.NotificationJob) {
	if job.RecipientID == job.SenderID {
		return
	}
	l.enqueue(ctx, job)
}

// enqueue hands the job to the queue with a bounded timeout. By the time
// this runs the toggle has committed; a queue failure is logged and left to
// the durable queue / dead-letter machinery, never propagated to the
// caller.
func (l *Ledger) enqueue(ctx context.Context, job *models.NotificationJob) {
	ctx, cancel := context.WithTimeout(ctx, l.enqueueTimeout)
	defer cancel()
	if err := l.queue.Enqueue(ctx, job); err != nil {
		log.Printf("ledger: enqueue notification for recipient %d failed: %v", job.RecipientID, err)
	}
}

func validateToggle(actorID uint, targetType, targetID, kind string) error {
	if !models.ValidKind(kind) {
		return &ValidationError{Field: "kind", Reason: "unknown kind " + kind}
	}
	if !models.ValidTargetType(targetType) {
		return &ValidationError{Field: "target_type", Reason: "unknown target type " + targetType}
	}
	if targetID == "" {
		return &ValidationError{Field: "target_id", Reason: "must not be empty"}
	}
	if !models.KindAllowsTarget(kind, targetType) {
		return &ValidationError{Field: "kind", Reason: kind + " cannot target a " + targetType}
	}
	// An actor may not follow itself.
	if kind == models.KindFollow && targetID == strconv.FormatUint(uint64(actorID), 10) {
		return &ValidationError{Field: "target_id", Reason: "cannot follow yourself"}
	}
	return nil
}

func notificationMessage(kind, targetType string) string {
	switch kind {
	case models.KindLike:
		return "liked your " + targetType
	case models.KindFollow:
		return "started following you"
	case models.KindMembership:
		if targetType == models.TargetEvent {
			return "is attending your event"
		}
		return "joined your group"
	}
	return ""
}
