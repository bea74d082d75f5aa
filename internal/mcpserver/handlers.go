package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/feedback"
	"github.com/kidney-health-score-server/internal/interpret"
	"github.com/kidney-health-score-server/internal/scoring"
	"github.com/kidney-health-score-server/internal/service"
)

type scoreReadingArgs struct {
	Reading      domain.HealthReading    `json:"reading"`
	Demographics *interpret.Demographics `json:"demographics,omitempty"`
}

type estimateGFRArgs struct {
	Reading  domain.HealthReading `json:"reading"`
	Previous []domain.GFRSample   `json:"previous,omitempty"`
}

type interpretScoreArgs struct {
	Result       domain.KSLSResult       `json:"result"`
	Demographics *interpret.Demographics `json:"demographics,omitempty"`
}

func (s *Server) handleScoreReading(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "score_reading").Info("Tool invoked")

	var args scoreReadingArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	result, err := s.metrics.ScoreReading(ctx, &service.ScoreReadingParams{
		Reading:      args.Reading,
		Demographics: args.Demographics,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(result)
}

func (s *Server) handleEstimateGFR(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "estimate_gfr").Info("Tool invoked")

	var args estimateGFRArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	estimate, trend, err := scoring.EstimateGFR(args.Reading, args.Previous)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"gfr":            estimate,
		"stage":          scoring.InterpretGFR(estimate.Value),
		"trend":          trend,
		"recommendation": scoring.GFRRecommendation(estimate.Value, estimate.Method, trend),
	})
}

func (s *Server) handleInterpretScore(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "interpret_score").Info("Tool invoked")

	var args interpretScoreArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	if !args.Result.Band.IsValid() {
		return errorResult(fmt.Errorf("invalid band: %q", args.Result.Band)), nil
	}

	return jsonResult(interpret.InterpretKSLS(args.Result, args.Demographics))
}

func (s *Server) handleSaveFeedback(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "save_feedback").Info("Tool invoked")

	var fb feedback.Feedback
	if err := unmarshalArgs(req, &fb); err != nil {
		return errorResult(err), nil
	}

	if fb.UserID == "" || fb.RecordID == "" {
		return errorResult(fmt.Errorf("user_id and record_id are required")), nil
	}

	if err := s.feedbackStore.Save(ctx, &fb); err != nil {
		return errorResult(err), nil
	}

	return jsonResult(fb)
}

func unmarshalArgs(req *mcp.CallToolRequest, target interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return fmt.Errorf("missing tool arguments")
	}
	if err := json.Unmarshal(req.Params.Arguments, target); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}
