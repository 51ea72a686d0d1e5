package models

import "time"

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey;index:idx_recipient_created,priority:3"`
	RecipientID uint       `json:"recipient_id" gorm:"index;index:idx_recipient_created,priority:1"`
	SenderID    uint       `json:"sender_id" gorm:"index"`
	Kind        string     `json:"kind" gorm:"size:30;index"` // like, follow, membership, comment
	TargetType  string     `json:"target_type" gorm:"size:20"`
	TargetID    string     `json:"target_id"`
	Message     string     `json:"message"`
	ReadAt      *time.Time `json:"read_at,omitempty"` // nil until the recipient reads it; set once, never reset
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_recipient_created,priority:2"`
}

// Read reports whether the recipient has read the notification.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
