package repositories

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuslink/backend/internal/models"
)

// newTestDB opens a file-backed SQLite database in a per-test temp dir.
// A real file plus a busy timeout lets concurrency tests hammer the same
// database from multiple goroutines the way the Postgres pool would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Event{},
		&models.Comment{},
		&models.Engagement{},
		&models.Notification{},
		&models.NotificationJob{},
	))
	return db
}
