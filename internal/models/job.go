package models

import "time"

// NotificationJob statuses.
const (
	JobStatusPending = "pending"
	JobStatusLeased  = "leased"
	JobStatusDone    = "done"
	JobStatusDead    = "dead"
)

// NotificationJob is the unit of work crossing the queue boundary between
// the engagement ledger and the notification dispatcher. Rows double as the
// durable queue: status/attempts/next_attempt_at drive redelivery, and
// status "dead" is the dead-letter channel with the full payload preserved
// for manual replay.
type NotificationJob struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"` // UUID
	RecipientID   uint      `json:"recipient_id"`
	SenderID      uint      `json:"sender_id"`
	Kind          string    `json:"kind" gorm:"size:30"`
	TargetType    string    `json:"target_type" gorm:"size:20"`
	TargetID      string    `json:"target_id"`
	Message       string    `json:"message"`
	Status        string    `json:"status" gorm:"size:10;default:'pending';index:idx_job_claim,priority:1"`
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `json:"next_attempt_at" gorm:"index:idx_job_claim,priority:2"`
	LeasedUntil   time.Time `json:"leased_until"`
	LastError     string    `json:"last_error"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
