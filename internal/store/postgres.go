package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/db"
	"github.com/sells-group/factcheck/internal/model"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	ttl     time.Duration
}

// NewPostgres connects to connString and returns a PostgresStore whose
// records expire ttl after their last write.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s := NewPostgresFromPool(pool, ttl)
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	progress   INTEGER NOT NULL DEFAULT 0,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_analyses_expires_at ON analyses(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, status, progress, record, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
		WHERE analyses.status = 'processing'
			AND (EXCLUDED.status <> 'processing' OR EXCLUDED.progress >= analyses.progress)`,
		rec.ID, string(rec.Status), rec.Progress, data, now, now, now.Add(s.ttl),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save record")
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM analyses WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get record")
	}
	return decodeRecord(data)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	return eris.Wrap(err, "postgres: delete record")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}
