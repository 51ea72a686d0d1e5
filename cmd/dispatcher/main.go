package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/campuslink/backend/internal/router"
	"github.com/campuslink/backend/pkg/config"
)

// The dispatcher runs as its own process, decoupled from the API server.
// It shares only the durable job queue and the notification store with the
// request path.
func main() {
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := router.NewDispatcher(db.Postgres)
	if err := dispatcher.Run(ctx); err != nil {
		log.Fatalf("Dispatcher exited with error: %v", err)
	}
}
