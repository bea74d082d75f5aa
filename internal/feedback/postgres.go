package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on Postgres for full deployments. It keeps
// its own database/sql handle rather than sharing the pgx pool: feedback is
// low-volume and survives independently of the metrics schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres feedback store and ensures the schema.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// NewPostgresStoreWithDB wraps an existing handle; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		record_id TEXT NOT NULL,
		band TEXT NOT NULL,
		helpful BOOLEAN NOT NULL DEFAULT FALSE,
		rating INTEGER NOT NULL DEFAULT 0,
		notes TEXT DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(user_id, record_id)
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_band ON feedback(band);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save stores or updates a user's feedback for a record.
func (s *PostgresStore) Save(ctx context.Context, fb *Feedback) error {
	now := time.Now()
	fb.UpdatedAt = now
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = now
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback (user_id, record_id, band, helpful, rating, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, record_id) DO UPDATE SET
			band = EXCLUDED.band,
			helpful = EXCLUDED.helpful,
			rating = EXCLUDED.rating,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, fb.UserID, fb.RecordID, fb.Band, fb.Helpful, fb.Rating, fb.Notes, fb.CreatedAt, fb.UpdatedAt).Scan(&fb.ID)

	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// Get retrieves a user's feedback for a record, or nil when none exists.
func (s *PostgresStore) Get(ctx context.Context, userID, recordID string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, record_id, band, helpful, rating, notes, created_at, updated_at
		FROM feedback
		WHERE user_id = $1 AND record_id = $2
		LIMIT 1
	`, userID, recordID)

	fb, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return fb, nil
}

// List returns feedback entries with pagination, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, record_id, band, helpful, rating, notes, created_at, updated_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

// Count returns the total number of feedback entries.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&count)
	return count, err
}

// Delete removes a feedback entry by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM feedback WHERE id = $1", id)
	return err
}

// ExportJSON exports all feedback to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Feedback:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
