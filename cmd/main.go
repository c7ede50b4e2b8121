/*
Package main is the entry point for the Community Hub application.

It is responsible for loading configuration, initializing the global logging
system, connecting to PostgreSQL, RabbitMQ and the object storage backend,
starting the meeting hub and the announcement worker, and gracefully handling
operating system interrupt signals (SIGINT, SIGTERM) for a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"communityhub/internal/app/announce"
	"communityhub/internal/app/db"
	"communityhub/internal/app/meeting"
	"communityhub/internal/app/storage"
	"communityhub/internal/app/store"
	"communityhub/internal/configs"
	"communityhub/internal/handler"
	"communityhub/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and run pending migrations
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	st := store.New(pool)

	// Initialize the realtime meeting hub
	hub := meeting.NewHub(meeting.NewRegistry(), st)

	// Connect the announcement queue and start its delivery worker.
	// The worker keeps retrying the broker, so a RabbitMQ restart only
	// delays announcements instead of taking the server down.
	queue := announce.NewQueue(cfg.RabbitURL)
	if err := queue.Connect(); err != nil {
		logx.Warn("Announcement queue unavailable at startup. Worker will keep retrying.", "error", err.Error())
	}
	defer queue.Close()

	worker := announce.NewWorker(queue, st, hub)
	go worker.Run(ctx)

	// Initialize object storage for file attachments
	storageService, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Config:         cfg,
		Store:          st,
		Hub:            hub,
		Queue:          queue,
		StorageService: storageService,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Community Hub Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
