// Package store persists agent run history behind a database/sql
// driver, so a run's final result survives the process and can be
// audited or resumed from later. Two drivers are supported: sqlite for
// local/single-node use and postgres for a shared deployment; both
// speak the same minimal schema through the standard database/sql
// interface.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/relaycore/agentcore/internal/config"
	"github.com/relaycore/agentcore/pkg/models"
)

// Store persists and retrieves agent run records.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens a store using cfg.Driver/cfg.DSN and ensures its schema
// exists. An empty Driver returns a nil Store and nil error: callers
// treat a nil Store as "persistence disabled".
func Open(cfg config.StoreConfig) (*Store, error) {
	if cfg.Driver == "" {
		return nil, nil
	}

	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

// OpenDB wraps an already-open *sql.DB (e.g. a sqlmock connection in
// tests) as a Store without driver resolution or a fresh Open call.
func OpenDB(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported store driver %q (want sqlite or postgres)", driver)
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS agent_runs (
	id          TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	message     TEXT NOT NULL,
	iterations  INTEGER NOT NULL,
	history     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
)`)
	return err
}

// RunRecord is one persisted agent run.
type RunRecord struct {
	ID        string
	Task      string
	Result    models.AgentResult
	CreatedAt time.Time
}

// SaveRun persists a completed run under id. It is safe to call on a
// nil *Store (a no-op), so callers don't need to branch on whether
// persistence is enabled.
func (s *Store) SaveRun(ctx context.Context, id, task string, result *models.AgentResult) error {
	if s == nil {
		return nil
	}
	history, err := json.Marshal(result.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.insertRun(ctx, id, task, result, history)
}

func (s *Store) insertRun(ctx context.Context, id, task string, result *models.AgentResult, history []byte) error {
	query := s.rebind(`INSERT INTO agent_runs (id, task, success, message, iterations, history, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, id, task, result.Success, result.Message, result.Iterations, string(history), time.Now())
	return err
}

// GetRun retrieves a previously saved run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, sql.ErrNoRows
	}
	query := s.rebind(`SELECT id, task, success, message, iterations, history, created_at FROM agent_runs WHERE id = ?`)
	row := s.db.QueryRowContext(ctx, query, id)

	var rec RunRecord
	var history string
	if err := row.Scan(&rec.ID, &rec.Task, &rec.Result.Success, &rec.Result.Message, &rec.Result.Iterations, &history, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(history), &rec.Result.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first, bounded by
// limit (offset paginates past it).
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, error) {
	if s == nil {
		return nil, nil
	}
	query := s.rebind(`SELECT id, task, success, message, iterations, history, created_at
FROM agent_runs ORDER BY created_at DESC LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var history string
		if err := rows.Scan(&rec.ID, &rec.Task, &rec.Result.Success, &rec.Result.Message, &rec.Result.Iterations, &history, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(history), &rec.Result.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// rebind translates ?-style placeholders into $N-style for postgres;
// sqlite accepts ? directly.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, []byte(fmt.Sprintf("$%d", n))...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// Close closes the underlying database connection. Close on a nil
// *Store is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
