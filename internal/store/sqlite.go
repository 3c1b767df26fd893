package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/factcheck/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// Records expire ttl after their last write; a non-positive ttl uses
// DefaultTTL.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Expiry is stored as unix milliseconds so comparisons stay numeric.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	progress   INTEGER NOT NULL DEFAULT 0,
	record     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_expires_at ON analyses(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, status, progress, record, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			record = excluded.record,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
		WHERE analyses.status = 'processing'
			AND (excluded.status <> 'processing' OR excluded.progress >= analyses.progress)`,
		rec.ID, string(rec.Status), rec.Progress, string(data), now, now, now.Add(s.ttl).UnixMilli(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM analyses WHERE id = ? AND expires_at > ?`,
		id, s.now().UTC().UnixMilli(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get record")
	}
	return decodeRecord([]byte(data))
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	return eris.Wrap(err, "sqlite: delete record")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE expires_at <= ?`,
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
