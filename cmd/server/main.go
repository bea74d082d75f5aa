package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/api"
	"github.com/kidney-health-score-server/internal/cache"
	"github.com/kidney-health-score-server/internal/config"
	"github.com/kidney-health-score-server/internal/database"
	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/feedback"
	"github.com/kidney-health-score-server/internal/repository"
	"github.com/kidney-health-score-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting kidney health score server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Postgres and run migrations
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationRunner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := migrationRunner.Up(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	migrationRunner.Close()

	readings := repository.NewReadingRepository(db.Pool, logger)

	// Redis score cache is best-effort; the service degrades without it.
	var scoreCache *cache.ScoreCache
	if sc, err := cache.NewScoreCache(cfg.Cache, logger); err != nil {
		logger.WithError(err).Warn("Score cache unavailable, scoring without cache")
	} else {
		scoreCache = sc
		defer scoreCache.Close()
	}

	interpretations, err := cache.NewInterpretationCache(cfg.Cache.MemoryMaxItems)
	if err != nil {
		logger.Fatalf("Failed to create interpretation cache: %v", err)
	}

	feedbackStore, err := newFeedbackStore(configManager)
	if err != nil {
		logger.Fatalf("Failed to create feedback store: %v", err)
	}
	defer feedbackStore.Close()

	hub := api.NewStreamHub(logger)
	defer hub.Close()

	opts := []service.Option{
		service.WithStore(readings),
		service.WithInterpretationCache(interpretations),
		service.WithNotifier(hub),
	}
	if scoreCache != nil {
		opts = append(opts, service.WithScoreCache(scoreCache))
	}
	metrics := service.NewMetricsService(logger, opts...)

	server := api.NewServer(cfg, logger, api.Deps{
		Metrics:  metrics,
		Feedback: feedbackStore,
		Hub:      hub,
		DB:       db,
		Cache:    scoreCache,
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

func newFeedbackStore(configManager *config.Manager) (feedback.Store, error) {
	cfg := configManager.GetConfig()
	if cfg.Feedback.Driver == "sqlite" {
		return feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
	}
	return feedback.NewPostgresStore(configManager.GetDatabaseConnectionString())
}
