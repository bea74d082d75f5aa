// Package mcpserver exposes the scoring engine as MCP tools over stdio, so
// assistant integrations can score readings without the HTTP deployment.
// It runs in lite mode: no Postgres, no Redis, SQLite for feedback.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/cache"
	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/feedback"
	"github.com/kidney-health-score-server/internal/service"
)

// Server is the MCP server wrapping the metrics service.
type Server struct {
	mcpServer     *mcp.Server
	metrics       *service.MetricsService
	feedbackStore feedback.Store
	logger        *logrus.Logger
}

// Option is a functional option for Server.
type Option func(*Server)

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) Option {
	return func(s *Server) { s.feedbackStore = store }
}

// NewServer creates the MCP server and registers its tools.
func NewServer(config *domain.Config, logger *logrus.Logger, opts ...Option) (*Server, error) {
	interpretations, err := cache.NewInterpretationCache(config.Cache.MemoryMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpretation cache: %w", err)
	}

	server := &Server{
		metrics: service.NewMetricsService(logger, service.WithInterpretationCache(interpretations)),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	if server.feedbackStore == nil {
		store, err := feedback.NewSQLiteStore(config.Feedback.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	serverInfo := &mcp.Implementation{
		Name:    "kidney-health-score-server",
		Version: "v0.1.0",
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)
	server.registerTools()

	logger.Info("MCP server initialized")
	return server, nil
}

func (s *Server) registerTools() {
	tools := []struct {
		def     *mcp.Tool
		handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{
			def: &mcp.Tool{
				Name:        "score_reading",
				Description: "Run the full scoring pipeline for a health reading: estimated GFR with CKD stage, the 0-100 Kidney Stress Load Score with banding, and a narrative interpretation.",
			},
			handler: s.handleScoreReading,
		},
		{
			def: &mcp.Tool{
				Name:        "estimate_gfr",
				Description: "Estimate GFR for a reading, using serum creatinine when available or the symptom-and-vital heuristic otherwise. Optionally classifies the trend against supplied prior samples.",
			},
			handler: s.handleEstimateGFR,
		},
		{
			def: &mcp.Tool{
				Name:        "interpret_score",
				Description: "Interpret a previously computed Kidney Stress Load Score, optionally personalized with demographic context. Demographics never change the numbers.",
			},
			handler: s.handleInterpretScore,
		},
		{
			def: &mcp.Tool{
				Name:        "save_feedback",
				Description: "Record user feedback on a scored reading's recommendation.",
			},
			handler: s.handleSaveFeedback,
		},
	}

	for _, tool := range tools {
		s.mcpServer.AddTool(tool.def, tool.handler)
		s.logger.WithField("tool_name", tool.def.Name).Debug("Registered MCP tool")
	}

	s.logger.WithField("tool_count", len(tools)).Info("Registered all MCP tools")
}

// Start runs the MCP server over stdio until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
		}
	}
	return nil
}
