// Package feedback captures user reactions to scored readings and their
// recommendations. Feedback is calibration input for the scoring weights,
// so it is kept even in lite deployments, where it lands in SQLite instead
// of Postgres.
package feedback

import (
	"context"
	"io"
	"time"
)

// Feedback is one user reaction to a scored reading. Band records which
// KSLS band the recommendation was issued for, so calibration can see
// whether disagreement clusters in a band.
type Feedback struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	RecordID string `json:"record_id"`
	Band     string `json:"band"`
	Helpful  bool   `json:"helpful"`
	Rating   int    `json:"rating"` // 1-5
	Notes    string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Export is the portable JSON envelope for feedback data.
type Export struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

// Store persists feedback. A user has at most one feedback entry per stored
// record; saving again updates it.
type Store interface {
	Save(ctx context.Context, fb *Feedback) error
	Get(ctx context.Context, userID, recordID string) (*Feedback, error)
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	ExportJSON(ctx context.Context, writer io.Writer) error
	Close() error
}
