package repositories

import (
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the read surface the engagement core needs from
// the user directory: existence checks for follow targets and identity
// lookups for the auth middleware.
type UserRepository interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
	Exists(id uint) (bool, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists checks whether a user with the given ID exists.
func (r *PostgresUserRepository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
