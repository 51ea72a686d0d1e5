package repositories

import (
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository exposes group existence and ownership for membership
// target resolution.
type GroupRepository interface {
	GetGroupByID(id uint) (*models.Group, error)
}

// PostgresGroupRepository implements GroupRepository for PostgreSQL
type PostgresGroupRepository struct {
	db *gorm.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository
func NewPostgresGroupRepository(db *gorm.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

// GetGroupByID retrieves a group by ID from PostgreSQL
func (r *PostgresGroupRepository) GetGroupByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// EventRepository exposes event existence and ownership for membership
// (attendance) target resolution.
type EventRepository interface {
	GetEventByID(id uint) (*models.Event, error)
}

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *gorm.DB
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// GetEventByID retrieves an event by ID from PostgreSQL
func (r *PostgresEventRepository) GetEventByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
