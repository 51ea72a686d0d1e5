package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/repositories"
)

// NotificationService is the recipient-scoped surface over the
// notification store. Every mutating method takes the calling actor's ID
// and refuses to touch another recipient's rows; this is the single
// capability check for the whole surface.
type NotificationService struct {
	notifications repositories.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns one page of the recipient's notifications, newest first,
// plus the continuation token ("" on the last page).
func (s *NotificationService) List(ctx context.Context, recipientID uint, cursorToken string, limit int) ([]models.Notification, string, error) {
	cur, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, "", &ValidationError{Field: "cursor", Reason: err.Error()}
	}
	limit = pagination.Clamp(limit)

	items, err := s.notifications.ListByRecipient(recipientID, cur, limit)
	if err != nil {
		return nil, "", &TransientError{Err: err}
	}

	var next string
	if len(items) == limit {
		last := items[len(items)-1]
		next = pagination.Encode(pagination.Cursor{
			Time: last.CreatedAt,
			ID:   strconv.FormatUint(uint64(last.ID), 10),
		})
	}
	return items, next, nil
}

// MarkRead sets read_at on the recipient's notification. Idempotent; a
// second call is a no-op. A caller who is not the recipient gets
// ErrPermission.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID uint) error {
	n, err := s.getOwned(recipientID, notificationID)
	if err != nil {
		return err
	}
	if n.Read() {
		return nil
	}
	if err := s.notifications.MarkRead(notificationID, time.Now()); err != nil {
		return &TransientError{Err: err}
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	if err := s.notifications.MarkAllRead(recipientID, time.Now()); err != nil {
		return &TransientError{Err: err}
	}
	return nil
}

// Delete removes the recipient's notification.
func (s *NotificationService) Delete(ctx context.Context, recipientID, notificationID uint) error {
	if _, err := s.getOwned(recipientID, notificationID); err != nil {
		return err
	}
	if err := s.notifications.Delete(notificationID); err != nil {
		return &TransientError{Err: err}
	}
	return nil
}

// UnreadCount returns the recipient's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	count, err := s.notifications.UnreadCount(recipientID)
	if err != nil {
		return 0, &TransientError{Err: err}
	}
	return count, nil
}

// Grouped returns the recipient's notifications bucketed by age.
func (s *NotificationService) Grouped(ctx context.Context, recipientID uint) (today, yesterday, thisWeek, older []models.Notification, err error) {
	today, yesterday, thisWeek, older, err = s.notifications.GetGrouped(recipientID)
	if err != nil {
		err = &TransientError{Err: err}
	}
	return
}

func (s *NotificationService) getOwned(recipientID, notificationID uint) (*models.Notification, error) {
	n, err := s.notifications.GetByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Err: err}
	}
	if n.RecipientID != recipientID {
		return nil, ErrPermission
	}
	return n, nil
}
