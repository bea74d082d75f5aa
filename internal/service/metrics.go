// Package service orchestrates the scoring pipeline around the pure engine:
// validation, history lookup, eGFR estimation, KSLS computation, narrative
// interpretation, and persistence.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/cache"
	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/interpret"
	"github.com/kidney-health-score-server/internal/scoring"
)

// historyLimit bounds how many prior samples feed trend analysis.
const historyLimit = 12

// ReadingStore is the persistence surface the service needs.
type ReadingStore interface {
	Create(ctx context.Context, record *domain.MetricsRecord) error
	GetHistory(ctx context.Context, userID string, limit int) ([]domain.GFRSample, error)
	GetLatest(ctx context.Context, userID string) (*domain.MetricsRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MetricsRecord, error)
}

// ScoreCache is the optional KSLS result cache.
type ScoreCache interface {
	GetScore(ctx context.Context, input domain.KSLSInput) (domain.KSLSResult, bool)
	SetScore(ctx context.Context, input domain.KSLSInput, result domain.KSLSResult)
}

// Notifier receives every stored record, for streaming consumers.
type Notifier interface {
	Publish(record *domain.MetricsRecord)
}

// MetricsService runs the scoring pipeline. The store, caches, and notifier
// are all optional: with none of them the service is a stateless scorer,
// which is how the lite MCP deployment runs it.
type MetricsService struct {
	logger          *logrus.Logger
	store           ReadingStore
	scores          ScoreCache
	interpretations *cache.InterpretationCache
	notifier        Notifier
}

// Option configures optional service dependencies.
type Option func(*MetricsService)

// WithStore attaches a persistence backend.
func WithStore(store ReadingStore) Option {
	return func(s *MetricsService) { s.store = store }
}

// WithScoreCache attaches a KSLS result cache.
func WithScoreCache(scores ScoreCache) Option {
	return func(s *MetricsService) { s.scores = scores }
}

// WithInterpretationCache attaches an in-process narrative cache.
func WithInterpretationCache(interpretations *cache.InterpretationCache) Option {
	return func(s *MetricsService) { s.interpretations = interpretations }
}

// WithNotifier attaches a streaming notifier.
func WithNotifier(notifier Notifier) Option {
	return func(s *MetricsService) { s.notifier = notifier }
}

// NewMetricsService creates a metrics service.
func NewMetricsService(logger *logrus.Logger, opts ...Option) *MetricsService {
	s := &MetricsService{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreReadingParams is the input to a full scoring run.
type ScoreReadingParams struct {
	UserID       string                  `json:"user_id"`
	Reading      domain.HealthReading    `json:"reading"`
	Demographics *interpret.Demographics `json:"demographics,omitempty"`
	// Persist stores the scored reading when a store is configured.
	Persist bool `json:"persist"`
}

// ScoreReadingResult is the complete output of a scoring run.
type ScoreReadingResult struct {
	RecordID       string                   `json:"record_id,omitempty"`
	Gfr            domain.GfrEstimate       `json:"gfr"`
	GfrStage       domain.StageInfo         `json:"gfr_stage"`
	GfrTrend       *domain.TrendResult      `json:"gfr_trend,omitempty"`
	Recommendation string                   `json:"recommendation"`
	Ksls           domain.KSLSResult        `json:"ksls"`
	Interpretation interpret.Interpretation `json:"interpretation"`
	ProcessingTime time.Duration            `json:"processing_time"`
}

// ScoreReading runs the full pipeline for one reading: estimate eGFR with
// trend against stored history, compute the KSLS, interpret it, and
// optionally persist the record.
func (s *MetricsService) ScoreReading(ctx context.Context, params *ScoreReadingParams) (*ScoreReadingResult, error) {
	startTime := time.Now()

	if err := params.Reading.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reading: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":        params.UserID,
		"has_creatinine": params.Reading.CreatinineMgDl != nil,
		"persist":        params.Persist,
	}).Info("Starting reading scoring")

	history, err := s.loadHistory(ctx, params.UserID)
	if err != nil {
		// Trend analysis degrades to insufficient data on history failure.
		s.logger.WithError(err).Warn("Failed to load eGFR history, scoring without trend")
		history = nil
	}

	gfr, trend, err := scoring.EstimateGFR(params.Reading, history)
	if err != nil {
		return nil, fmt.Errorf("estimating gfr: %w", err)
	}

	ksls, err := s.computeKSLS(ctx, params.Reading.KSLSInput())
	if err != nil {
		return nil, fmt.Errorf("computing ksls: %w", err)
	}

	interpretation := s.interpretScore(ksls, params.Demographics)

	result := &ScoreReadingResult{
		Gfr:            gfr,
		GfrStage:       scoring.InterpretGFR(gfr.Value),
		GfrTrend:       trend,
		Recommendation: scoring.GFRRecommendation(gfr.Value, gfr.Method, trend),
		Ksls:           ksls,
		Interpretation: interpretation,
	}

	if params.Persist && s.store != nil {
		record := &domain.MetricsRecord{
			ID:       uuid.New().String(),
			UserID:   params.UserID,
			Reading:  params.Reading,
			Gfr:      gfr,
			GfrTrend: trend,
			Ksls:     ksls,
		}
		if err := s.store.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("storing scored reading: %w", err)
		}
		result.RecordID = record.ID

		if s.notifier != nil {
			s.notifier.Publish(record)
		}
	}

	result.ProcessingTime = time.Since(startTime)

	s.logger.WithFields(logrus.Fields{
		"user_id":         params.UserID,
		"record_id":       result.RecordID,
		"gfr":             gfr.Value,
		"gfr_method":      gfr.Method.String(),
		"ksls":            ksls.KSLS,
		"band":            ksls.Band.String(),
		"processing_time": result.ProcessingTime,
	}).Info("Reading scoring completed")

	return result, nil
}

// GetHistory returns a user's stored eGFR samples, newest first.
func (s *MetricsService) GetHistory(ctx context.Context, userID string, limit int) ([]domain.GFRSample, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no reading store configured")
	}
	if limit <= 0 || limit > 100 {
		limit = historyLimit
	}
	return s.store.GetHistory(ctx, userID, limit)
}

// GetLatest returns a user's most recent scored reading.
func (s *MetricsService) GetLatest(ctx context.Context, userID string) (*domain.MetricsRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no reading store configured")
	}
	return s.store.GetLatest(ctx, userID)
}

// ListReadings returns a user's scored readings with pagination.
func (s *MetricsService) ListReadings(ctx context.Context, userID string, limit, offset int) ([]*domain.MetricsRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no reading store configured")
	}
	if limit <= 0 || limit > 100 {
		limit = historyLimit
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}

func (s *MetricsService) loadHistory(ctx context.Context, userID string) ([]domain.GFRSample, error) {
	if s.store == nil || userID == "" {
		return nil, nil
	}
	return s.store.GetHistory(ctx, userID, historyLimit)
}

func (s *MetricsService) computeKSLS(ctx context.Context, input domain.KSLSInput) (domain.KSLSResult, error) {
	if s.scores != nil {
		if cached, found := s.scores.GetScore(ctx, input); found {
			s.logger.Debug("KSLS cache hit")
			return cached, nil
		}
	}

	result, err := scoring.CalculateKSLS(input)
	if err != nil {
		return domain.KSLSResult{}, err
	}

	if s.scores != nil {
		s.scores.SetScore(ctx, input, result)
	}
	return result, nil
}

func (s *MetricsService) interpretScore(result domain.KSLSResult, demo *interpret.Demographics) interpret.Interpretation {
	key := interpretationKey(result, demo)

	if s.interpretations != nil {
		if cached, found := s.interpretations.Get(key); found {
			return cached
		}
	}

	interpretation := interpret.InterpretKSLS(result, demo)

	if s.interpretations != nil {
		s.interpretations.Set(key, interpretation)
	}
	return interpretation
}

func interpretationKey(result domain.KSLSResult, demo *interpret.Demographics) string {
	payload, err := json.Marshal(struct {
		Result domain.KSLSResult       `json:"result"`
		Demo   *interpret.Demographics `json:"demo"`
	}{result, demo})
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(payload)
	return fmt.Sprintf("interp:%x", hash[:8])
}
