// Package sqlite provides a SQLite run index, the local default for "runs ls" and the
// HTTP inspection server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    env TEXT NOT NULL,
    version TEXT NOT NULL,
    complete INTEGER NOT NULL,
    finished INTEGER NOT NULL,
    path TEXT NOT NULL,
    created_at_ns INTEGER NOT NULL,
    scalars TEXT  -- JSON
);
CREATE INDEX IF NOT EXISTS idx_runs_env_created ON runs(env, created_at_ns);
`

// Index implements ports.RunIndex on a SQLite database file.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database at path.
func Open(ctx context.Context, path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Put inserts or replaces entry.
func (s *Index) Put(ctx context.Context, entry domain.RunEntry) error {
	scalars, err := json.Marshal(entry.Scalars)
	if err != nil {
		return fmt.Errorf("failed to marshal scalars: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, env, version, complete, finished, path, created_at_ns, scalars)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			env = excluded.env,
			version = excluded.version,
			complete = excluded.complete,
			finished = excluded.finished,
			path = excluded.path,
			created_at_ns = excluded.created_at_ns,
			scalars = excluded.scalars`,
		entry.RunID, entry.Env, entry.Version, entry.Complete, entry.Finished, entry.Path,
		entry.CreatedAt.UnixNano(), string(scalars))
	if err != nil {
		return fmt.Errorf("failed to put run %s: %w", entry.RunID, err)
	}
	return nil
}

const selectColumns = `SELECT run_id, env, version, complete, finished, path, created_at_ns, scalars FROM runs`

// Get retrieves one entry.
func (s *Index) Get(ctx context.Context, runID string) (domain.RunEntry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, runID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunEntry{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.RunEntry{}, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return entry, nil
}

// List returns entries oldest first, optionally limited to one environment type.
func (s *Index) List(ctx context.Context, env string) ([]domain.RunEntry, error) {
	query := selectColumns
	var args []any
	if env != "" {
		query += ` WHERE env = ?`
		args = append(args, env)
	}
	query += ` ORDER BY created_at_ns, run_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out := []domain.RunEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Index) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.RunEntry, error) {
	var (
		e       domain.RunEntry
		created int64
		scalars sql.NullString
	)
	if err := row.Scan(&e.RunID, &e.Env, &e.Version, &e.Complete, &e.Finished, &e.Path, &created, &scalars); err != nil {
		return domain.RunEntry{}, err
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	if scalars.Valid && scalars.String != "" && scalars.String != "null" {
		if err := json.Unmarshal([]byte(scalars.String), &e.Scalars); err != nil {
			return domain.RunEntry{}, fmt.Errorf("failed to decode scalars: %w", err)
		}
	}
	return e, nil
}

var _ ports.RunIndex = (*Index)(nil)
