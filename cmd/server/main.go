package main

import (
	"context"
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/campuslink/backend/internal/router"
	"github.com/campuslink/backend/pkg/config"
	"github.com/campuslink/backend/pkg/firebase"
	"github.com/campuslink/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase only when it is the configured auth mode
	var authClient *auth.Client
	if cfg.AuthMode == "firebase" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		authClient = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, authClient)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
