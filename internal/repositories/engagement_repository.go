package repositories

import (
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository defines the interface for engagement data operations.
// All mutation goes through InsertIfAbsent/DeleteIfPresent; the composite
// unique index on (actor_id, target_type, target_id, kind) serializes
// concurrent toggles at the storage layer.
type EngagementRepository interface {
	// InsertIfAbsent inserts the engagement unless the tuple already
	// exists. Returns created=true only for the caller whose row won;
	// losing a duplicate race is not an error.
	InsertIfAbsent(e *models.Engagement) (created bool, err error)

	// DeleteIfPresent deletes the engagement if it exists. Deleting an
	// absent engagement is not an error.
	DeleteIfPresent(actorID uint, targetType, targetID, kind string) (deleted bool, err error)

	Exists(actorID uint, targetType, targetID, kind string) (bool, error)
	Count(targetType, targetID, kind string) (int64, error)

	// DeleteForTarget removes all engagements pointing at a target. Called
	// explicitly by the owner of the target's lifecycle; nothing cascades
	// here implicitly.
	DeleteForTarget(targetType, targetID string) (int64, error)
}

// PostgresEngagementRepository implements EngagementRepository for PostgreSQL
type PostgresEngagementRepository struct {
	db *gorm.DB
}

// NewPostgresEngagementRepository creates a new PostgresEngagementRepository
func NewPostgresEngagementRepository(db *gorm.DB) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{db: db}
}

// InsertIfAbsent creates the engagement with ON CONFLICT DO NOTHING. A lost
// duplicate race surfaces as RowsAffected == 0, never as an error.
func (r *PostgresEngagementRepository) InsertIfAbsent(e *models.Engagement) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "actor_id"}, {Name: "target_type"}, {Name: "target_id"}, {Name: "kind"},
		},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteIfPresent deletes the engagement tuple if present.
func (r *PostgresEngagementRepository) DeleteIfPresent(actorID uint, targetType, targetID, kind string) (bool, error) {
	res := r.db.
		Where("actor_id = ? AND target_type = ? AND target_id = ? AND kind = ?",
			actorID, targetType, targetID, kind).
		Delete(&models.Engagement{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists checks whether the engagement tuple is present.
func (r *PostgresEngagementRepository) Exists(actorID uint, targetType, targetID, kind string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Engagement{}).
		Where("actor_id = ? AND target_type = ? AND target_id = ? AND kind = ?",
			actorID, targetType, targetID, kind).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of engagements of the given kind on a target.
func (r *PostgresEngagementRepository) Count(targetType, targetID, kind string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Engagement{}).
		Where("target_type = ? AND target_id = ? AND kind = ?", targetType, targetID, kind).
		Count(&count).Error
	return count, err
}

// DeleteForTarget removes every engagement pointing at the target.
func (r *PostgresEngagementRepository) DeleteForTarget(targetType, targetID string) (int64, error) {
	res := r.db.
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Delete(&models.Engagement{})
	return res.RowsAffected, res.Error
}
