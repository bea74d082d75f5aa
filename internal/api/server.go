// Package api exposes the scoring pipeline over HTTP: score submission,
// history and latest-reading queries, recommendation feedback, and a
// websocket stream of newly scored readings.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/cache"
	"github.com/kidney-health-score-server/internal/database"
	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/feedback"
	"github.com/kidney-health-score-server/internal/middleware"
	"github.com/kidney-health-score-server/internal/service"
)

// Deps carries the server's collaborators. Feedback, Hub, DB, and Cache are
// optional; routes depending on a missing collaborator are not registered.
type Deps struct {
	Metrics  *service.MetricsService
	Feedback feedback.Store
	Hub      *StreamHub
	DB       *database.DB
	Cache    *cache.ScoreCache
}

// Server is the HTTP server.
type Server struct {
	config *domain.Config
	log    *logrus.Logger
	deps   Deps
	router *gin.Engine
	server *http.Server
}

// NewServer creates an HTTP server with routing and middleware configured.
func NewServer(config *domain.Config, logger *logrus.Logger, deps Deps) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(config.Server.RateLimitRPS, config.Server.RateLimitBurst))

	s := &Server{
		config: config,
		log:    logger,
		deps:   deps,
		router: router,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/health-metrics", s.handleScoreReading)
		v1.GET("/users/:id/history", s.handleGetHistory)
		v1.GET("/users/:id/latest", s.handleGetLatest)
		v1.GET("/users/:id/readings", s.handleListReadings)

		if s.deps.Feedback != nil {
			v1.POST("/feedback", s.handleSaveFeedback)
			v1.GET("/feedback", s.handleListFeedback)
		}
	}

	if s.deps.Hub != nil {
		s.router.GET("/api/v1/stream", s.deps.Hub.HandleUpgrade)
	}
}

// Router exposes the configured engine; used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until the context is canceled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// handleHealth reports service and dependency health.
func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if s.deps.DB != nil {
		if err := s.deps.DB.Health(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Ping(c.Request.Context()); err != nil {
			// Cache loss degrades performance, not availability.
			checks["cache"] = "unhealthy"
		} else {
			checks["cache"] = "healthy"
		}
	}

	c.JSON(status, gin.H{
		"status":    healthWord(status),
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

func healthWord(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}
