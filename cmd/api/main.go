package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propstack/claimsgo/internal/ai"
	"github.com/propstack/claimsgo/internal/buildinfo"
	"github.com/propstack/claimsgo/internal/claims"
	"github.com/propstack/claimsgo/internal/config"
	"github.com/propstack/claimsgo/internal/coverage"
	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/handlers"
	"github.com/propstack/claimsgo/internal/models"
	"github.com/propstack/claimsgo/internal/notify"
	"github.com/propstack/claimsgo/internal/storage"
	ws "github.com/propstack/claimsgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Property{},
		&models.Claim{},
		&models.ChecklistItem{},
		&models.ChecklistItemDocument{},
		&models.ClaimDocument{},
		&models.TimelineEvent{},
		&models.OutboxEvent{},
		&models.CoverageAnalysis{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire services
	hub := ws.NewHub()
	go hub.Run()

	store := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.BaseURL)
	notifier := notify.Multi{notify.LogNotifier{}, notify.NewHubNotifier(hub)}
	coverageCache := coverage.NewCache(db)

	service := claims.NewService(db, store, notifier, coverageCache)

	// 5. Outbox dispatcher (advances PENDING events, fans out to the feed)
	dispatcher := claims.NewDispatcher(db, func(event models.OutboxEvent) error {
		return hub.Broadcast(map[string]interface{}{
			"type":    "domain_event",
			"event":   event.Type,
			"claimId": event.AggregateID,
			"id":      event.ID,
		})
	}, cfg.Outbox.Interval, cfg.Outbox.BatchSize)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)
	log.Println("✅ Outbox dispatcher started")

	// 6. HTTP router
	router := handlers.NewRouter(db, cfg, service, hub)

	// Optional Gemini assistant
	if cfg.Assistant.APIKey != "" {
		assistant, err := ai.NewAssistant(context.Background(), cfg.Assistant.APIKey, cfg.Assistant.Model, service)
		if err != nil {
			log.Printf("⚠️ Assistant: failed to init: %v", err)
		} else {
			router.SetAssistant(assistant)
			defer assistant.Close()
			log.Println("✅ Assistant: Gemini client ready")
		}
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Claims server starting on port %s (built %s)\n", cfg.Port, buildinfo.BuildTime)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	stopDispatch()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
