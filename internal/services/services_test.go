package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/queue"
	"github.com/campuslink/backend/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "services.db") + "?_busy_timeout=5000&_journal_mode=WAL"
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

// stubPostRepo replaces the Mongo-backed post store with an in-memory
// post-to-author map.
type stubPostRepo struct {
	authors map[string]uint
}

func (r *stubPostRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.authors[id]
	return ok, nil
}

func (r *stubPostRepo) AuthorID(ctx context.Context, id string) (uint, error) {
	authorID, ok := r.authors[id]
	if !ok {
		return 0, repositories.ErrPostNotFound
	}
	return authorID, nil
}

func (r *stubPostRepo) FeedPage(ctx context.Context, cur *pagination.Cursor, limit int) ([]models.Post, string, error) {
	return nil, "", nil
}

// brokenQueue refuses every enqueue, simulating an unreachable queue.
type brokenQueue struct{}

func (brokenQueue) Enqueue(ctx context.Context, job *models.NotificationJob) error {
	return fmt.Errorf("queue unavailable")
}

func (brokenQueue) Dequeue(ctx context.Context) (*queue.Delivery, error) {
	return nil, fmt.Errorf("queue unavailable")
}

func (brokenQueue) DeadLetters(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	return nil, fmt.Errorf("queue unavailable")
}

func (brokenQueue) Redrive(ctx context.Context, jobID string) error {
	return fmt.Errorf("queue unavailable")
}

// fixture wires a Ledger over SQLite stores, a stub post store and an
// in-memory queue.
type fixture struct {
	db     *gorm.DB
	posts  *stubPostRepo
	queue  *queue.MemoryQueue
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	posts := &stubPostRepo{authors: map[string]uint{}}
	q := queue.NewMemoryQueue(3)
	resolver := NewStoreTargetResolver(
		posts,
		repositories.NewPostgresCommentRepository(db),
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresGroupRepository(db),
		repositories.NewPostgresEventRepository(db),
	)
	return &fixture{
		db:     db,
		posts:  posts,
		queue:  q,
		ledger: NewLedger(repositories.NewPostgresEngagementRepository(db), resolver, q),
	}
}

func (f *fixture) seedUser(t *testing.T, id uint, role string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{
		ID:          id,
		Name:        fmt.Sprintf("user-%d", id),
		Email:       fmt.Sprintf("user-%d@campus.edu", id),
		Role:        role,
		FirebaseUID: fmt.Sprintf("uid-%d", id),
	}).Error)
}

// drainJob pops the single expected job off the queue and acks it.
func (f *fixture) drainJob(t *testing.T) *models.NotificationJob {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	delivery, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, delivery.Ack())
	return delivery.Job
}
