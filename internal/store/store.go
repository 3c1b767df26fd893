// Package store persists analysis records for status polling and result
// retrieval.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/model"
)

// ErrNotFound is returned when no live record exists for an id.
var ErrNotFound = eris.New("store: analysis not found")

// ErrStaleWrite is returned when a write would move a record backwards: a
// terminal record being overwritten, or progress decreasing.
var ErrStaleWrite = eris.New("store: stale write rejected")

// Store holds analysis records keyed by id. Implementations are safe for
// concurrent use and enforce model.AnalysisRecord.CanTransition on Save.
type Store interface {
	// Save inserts or replaces the record with rec.ID.
	Save(ctx context.Context, rec model.AnalysisRecord) error
	// Get returns a snapshot of the record, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.AnalysisRecord, error)
	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Migrator is implemented by stores that need schema setup.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DefaultTTL is how long persistent stores keep a record.
const DefaultTTL = 24 * time.Hour

// Sweeper is implemented by stores that delete expired records on demand.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int, error)
}

func encodeRecord(rec model.AnalysisRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &rec, nil
}
