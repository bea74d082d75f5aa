// Package repository persists scored health readings in Postgres.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/domain"
)

// ReadingRepository handles stored reading persistence.
type ReadingRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewReadingRepository creates a new reading repository.
func NewReadingRepository(db *pgxpool.Pool, logger *logrus.Logger) *ReadingRepository {
	return &ReadingRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a scored reading. The reading, trend, and factor breakdown
// are stored as jsonb; the eGFR value and recording time are extracted into
// columns for the history query.
func (r *ReadingRepository) Create(ctx context.Context, record *domain.MetricsRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	readingJSON, err := json.Marshal(record.Reading)
	if err != nil {
		return fmt.Errorf("marshaling reading: %w", err)
	}
	kslsJSON, err := json.Marshal(record.Ksls)
	if err != nil {
		return fmt.Errorf("marshaling ksls result: %w", err)
	}
	var trendJSON []byte
	if record.GfrTrend != nil {
		trendJSON, err = json.Marshal(record.GfrTrend)
		if err != nil {
			return fmt.Errorf("marshaling trend result: %w", err)
		}
	}

	query := `
		INSERT INTO health_metrics (
			id, user_id, reading, gfr_value, gfr_method, gfr_confidence,
			gfr_label, gfr_trend, ksls, ksls_value, ksls_band, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		readingJSON,
		record.Gfr.Value,
		record.Gfr.Method.String(),
		record.Gfr.Confidence.String(),
		record.Gfr.CalculationLabel,
		trendJSON,
		kslsJSON,
		record.Ksls.KSLS,
		record.Ksls.Band.String(),
		record.Reading.RecordedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"record_id": record.ID,
			"user_id":   record.UserID,
			"error":     err,
		}).Error("Failed to store health metrics record")
		return fmt.Errorf("creating health metrics record: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"record_id": record.ID,
		"user_id":   record.UserID,
		"gfr":       record.Gfr.Value,
		"ksls":      record.Ksls.KSLS,
	}).Info("Health metrics record stored")

	return nil
}

// GetHistory returns up to limit prior eGFR samples for a user, newest
// first, in the shape the trend analyzer expects.
func (r *ReadingRepository) GetHistory(ctx context.Context, userID string, limit int) ([]domain.GFRSample, error) {
	query := `
		SELECT gfr_value, recorded_at
		FROM health_metrics
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("Failed to query eGFR history")
		return nil, fmt.Errorf("querying egfr history: %w", err)
	}
	defer rows.Close()

	var samples []domain.GFRSample
	for rows.Next() {
		var sample domain.GFRSample
		if err := rows.Scan(&sample.Value, &sample.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning egfr history row: %w", err)
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating egfr history rows: %w", err)
	}

	return samples, nil
}

// GetLatest retrieves a user's most recent scored reading.
func (r *ReadingRepository) GetLatest(ctx context.Context, userID string) (*domain.MetricsRecord, error) {
	query := `
		SELECT id, user_id, reading, gfr_value, gfr_method, gfr_confidence,
			   gfr_label, gfr_trend, ksls, created_at
		FROM health_metrics
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1`

	record, err := r.scanRecord(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no readings for user: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("Failed to get latest reading")
		return nil, fmt.Errorf("getting latest reading: %w", err)
	}

	return record, nil
}

// GetByID retrieves a stored record by its identifier.
func (r *ReadingRepository) GetByID(ctx context.Context, id string) (*domain.MetricsRecord, error) {
	query := `
		SELECT id, user_id, reading, gfr_value, gfr_method, gfr_confidence,
			   gfr_label, gfr_trend, ksls, created_at
		FROM health_metrics
		WHERE id = $1`

	record, err := r.scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("record not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting record by id: %w", err)
	}

	return record, nil
}

// ListByUser retrieves a user's scored readings with pagination, newest first.
func (r *ReadingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MetricsRecord, error) {
	query := `
		SELECT id, user_id, reading, gfr_value, gfr_method, gfr_confidence,
			   gfr_label, gfr_trend, ksls, created_at
		FROM health_metrics
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("Failed to list readings")
		return nil, fmt.Errorf("listing readings: %w", err)
	}
	defer rows.Close()

	var records []*domain.MetricsRecord
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading rows: %w", err)
	}

	return records, nil
}

// Delete removes a stored record.
func (r *ReadingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM health_metrics WHERE id = $1`, id)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"record_id": id,
			"error":     err,
		}).Error("Failed to delete record")
		return fmt.Errorf("deleting record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("record not found: %w", domain.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ReadingRepository) scanRecord(row rowScanner) (*domain.MetricsRecord, error) {
	var (
		record      domain.MetricsRecord
		readingJSON []byte
		kslsJSON    []byte
		trendJSON   []byte
		createdAt   time.Time
	)

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&readingJSON,
		&record.Gfr.Value,
		&record.Gfr.Method,
		&record.Gfr.Confidence,
		&record.Gfr.CalculationLabel,
		&trendJSON,
		&kslsJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(readingJSON, &record.Reading); err != nil {
		return nil, fmt.Errorf("unmarshaling reading: %w", err)
	}
	if err := json.Unmarshal(kslsJSON, &record.Ksls); err != nil {
		return nil, fmt.Errorf("unmarshaling ksls result: %w", err)
	}
	if len(trendJSON) > 0 {
		record.GfrTrend = &domain.TrendResult{}
		if err := json.Unmarshal(trendJSON, record.GfrTrend); err != nil {
			return nil, fmt.Errorf("unmarshaling trend result: %w", err)
		}
	}
	record.CreatedAt = createdAt

	return &record, nil
}
