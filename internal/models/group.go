package models

import "time"

// Group is the group directory row. Group CRUD is owned by the community
// service; the engagement core reads groups for membership target checks.
type Group struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	OwnerID   uint      `json:"owner_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is the event directory row, read for membership (attendance)
// target checks.
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title"`
	OrganizerID uint      `json:"organizer_id" gorm:"index"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
}
