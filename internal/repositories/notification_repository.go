package repositories

import (
	"time"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(n *models.Notification) error

	// ExistsRecent reports whether a notification with the same
	// (recipient, sender, kind, target) was created at or after since.
	// This is the dispatcher's idempotency check for redelivered jobs.
	ExistsRecent(recipientID, senderID uint, kind, targetType, targetID string, since time.Time) (bool, error)

	GetByID(id uint) (*models.Notification, error)

	// ListByRecipient returns one page of the recipient's notifications,
	// newest first, positioned by cursor.
	ListByRecipient(recipientID uint, cur *pagination.Cursor, limit int) ([]models.Notification, error)

	// MarkRead sets read_at if it is still null. Idempotent: marking an
	// already-read notification changes nothing.
	MarkRead(id uint, at time.Time) error
	MarkAllRead(recipientID uint, at time.Time) error
	Delete(id uint) error
	UnreadCount(recipientID uint) (int64, error)
	GetGrouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, err error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a NotificationRepository backed
// by PostgreSQL.
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *postgresNotificationRepository) ExistsRecent(recipientID, senderID uint, kind, targetType, targetID string, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND sender_id = ? AND kind = ? AND target_type = ? AND target_id = ? AND created_at >= ?",
			recipientID, senderID, kind, targetType, targetID, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *postgresNotificationRepository) ListByRecipient(recipientID uint, cur *pagination.Cursor, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.
		Where("recipient_id = ?", recipientID).
		Scopes(pagination.Scope("created_at", cur, pagination.Desc)).
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) MarkRead(id uint, at time.Time) error {
	// read_at IS NULL keeps the timestamp monotonic: first read wins.
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

func (r *postgresNotificationRepository) MarkAllRead(recipientID uint, at time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at).Error
}

func (r *postgresNotificationRepository) Delete(id uint) error {
	return r.db.Delete(&models.Notification{}, id).Error
}

func (r *postgresNotificationRepository) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) GetGrouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, retErr error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	// Today
	if err := r.db.Where("recipient_id = ? AND created_at >= ?", recipientID, todayStart).
		Order("created_at DESC").Find(&today).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// Yesterday
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, yesterdayStart, todayStart).
		Order("created_at DESC").Find(&yesterday).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// This week (excluding today and yesterday)
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, weekStart, yesterdayStart).
		Order("created_at DESC").Find(&thisWeek).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// Older
	if err := r.db.Where("recipient_id = ? AND created_at < ?", recipientID, weekStart).
		Order("created_at DESC").Limit(50).Find(&older).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	return today, yesterday, thisWeek, older, nil
}
