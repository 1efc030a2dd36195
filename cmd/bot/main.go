package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/auth"
	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/monitoring"
	"github.com/brandpulse/mentions-bot/internal/notifications"
	"github.com/brandpulse/mentions-bot/internal/reddit"
	"github.com/brandpulse/mentions-bot/internal/scheduler"
	"github.com/brandpulse/mentions-bot/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting BrandPulse mentions bot")

	// Initialize SQLite storage
	db, err := store.NewSQLite(cfg.DatabasePath, cfg.ContentMaxLength)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer db.Close()

	// Initialize services
	tokenManager := auth.NewManager(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent, db)
	searchClient := reddit.NewClient(cfg.RedditUserAgent, cfg.RetryAttempts, cfg.RetryDelay)

	var notifier notifications.NotificationInterface
	if svc := notifications.NewService(cfg); svc.Enabled() {
		notifier = svc
	}

	monitoringService := monitoring.NewService(cfg, db, db, tokenManager, searchClient, notifier)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, monitoringService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks and manual triggers
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", metricsHandler(monitoringService)).Methods("GET")

	// Manual trigger endpoint for one user's jobs
	router.HandleFunc("/trigger", triggerHandler(monitoringService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := monitoringService.GetMetrics()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	}
}

type triggerRequest struct {
	UserID string `json:"user_id"`
}

// triggerHandler runs all of one user's keyword jobs immediately. The run is
// best-effort: the response is always a summary, and per-keyword failures are
// only visible on the job records themselves.
func triggerHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"user_id is required"}`))
			return
		}

		summary := monitoringService.RunForUser(r.Context(), req.UserID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			logrus.Errorf("Failed to encode trigger response: %v", err)
		}
	}
}
