package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/campuslink/backend/internal/dispatch"
	"github.com/campuslink/backend/internal/handlers"
	"github.com/campuslink/backend/internal/middleware"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/queue"
	"github.com/campuslink/backend/internal/repositories"
	"github.com/campuslink/backend/internal/services"
	"github.com/campuslink/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Migrate runs the PostgreSQL auto-migrations for every model this core
// owns. Called by both the API server and the dispatcher binary so either
// can start first.
func Migrate(pgdb *gorm.DB) error {
	return pgdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Event{},
		&models.Comment{},
		&models.Engagement{},
		&models.Notification{},
		&models.NotificationJob{},
	)
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil when AUTH_MODE is jwt.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	if err := Migrate(pgdb); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("campuslink"))
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	groupRepo := repositories.NewPostgresGroupRepository(pgdb)
	eventRepo := repositories.NewPostgresEventRepository(pgdb)
	engagementRepo := repositories.NewPostgresEngagementRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	// --- Queue and services ---
	jobQueue := queue.NewGormQueue(pgdb)
	resolver := services.NewStoreTargetResolver(postRepo, commentRepo, userRepo, groupRepo, eventRepo)
	ledger := services.NewLedger(engagementRepo, resolver, jobQueue)
	notificationService := services.NewNotificationService(notificationRepo)
	commentService := services.NewCommentService(commentRepo, postRepo, ledger)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if cfg.AuthMode == "firebase" {
		api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient, userRepo))
		log.Println("Firebase authentication middleware applied to /api/v1 group.")
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		log.Println("JWT authentication middleware applied to /api/v1 group.")
	}

	// Engagement routes
	engagementHandler := handlers.NewEngagementHandler(ledger)
	engagementHandler.RegisterEngagementRoutes(api)
	log.Println("Engagement routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationService, jobQueue)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentService)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(postRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	log.Println("All routes configured.")
}

// NewDispatcher builds the notification dispatcher over the same durable
// queue and notification store the API uses.
func NewDispatcher(pgdb *gorm.DB) *dispatch.Dispatcher {
	jobQueue := queue.NewGormQueue(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	return dispatch.New(jobQueue, notificationRepo)
}
