package models

import "time"

// Engagement kinds.
const (
	KindLike       = "like"
	KindFollow     = "follow"
	KindMembership = "membership"
)

// Target types an engagement or notification can point at.
const (
	TargetPost    = "post"
	TargetComment = "comment"
	TargetActor   = "actor"
	TargetGroup   = "group"
	TargetEvent   = "event"
)

// Engagement represents a single actor/target/kind edge (a like, a follow,
// a group or event membership). The composite unique index is the
// serialization point for concurrent toggles: the database decides the
// winner, not application code.
type Engagement struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ActorID    uint      `json:"actor_id" gorm:"index;uniqueIndex:idx_actor_target_kind"`
	TargetType string    `json:"target_type" gorm:"size:20;uniqueIndex:idx_actor_target_kind"`
	TargetID   string    `json:"target_id" gorm:"index;uniqueIndex:idx_actor_target_kind"` // numeric ID or MongoDB ObjectID as string
	Kind       string    `json:"kind" gorm:"size:20;uniqueIndex:idx_actor_target_kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// kindTargets maps each kind to the target types it may be applied to.
var kindTargets = map[string]map[string]bool{
	KindLike:       {TargetPost: true, TargetComment: true},
	KindFollow:     {TargetActor: true},
	KindMembership: {TargetGroup: true, TargetEvent: true},
}

// ValidKind reports whether kind is a known engagement kind.
func ValidKind(kind string) bool {
	_, ok := kindTargets[kind]
	return ok
}

// ValidTargetType reports whether t is a known target type.
func ValidTargetType(t string) bool {
	switch t {
	case TargetPost, TargetComment, TargetActor, TargetGroup, TargetEvent:
		return true
	}
	return false
}

// KindAllowsTarget reports whether kind may be applied to targets of type t.
func KindAllowsTarget(kind, t string) bool {
	return kindTargets[kind][t]
}

// ToggleRequest defines the request body for toggling an engagement on or off
type ToggleRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=post comment actor group event"`
	TargetID   string `json:"target_id" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=like follow membership"`
}
