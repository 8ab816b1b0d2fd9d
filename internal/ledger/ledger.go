// Package ledger records every pipeline stage run in a SQLite database
// under the work directory, and serializes access to that directory
// with a file lock so concurrent invocations don't trample each
// other's outputs.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the
// schema changes; old databases are rejected rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by a different
// version of this package.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// Stage names recorded in the ledger.
const (
	StageSupercell = "supercell"
	StageStatic    = "static"
	StageRelax     = "relax"
	StageDistances = "distances"
	StageImage     = "image"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run is one recorded stage execution.
type Run struct {
	ID        string
	Stage     string
	Status    string
	Artifact  string
	Energy    sql.NullFloat64
	Fmax      sql.NullFloat64
	Converged sql.NullBool
	Detail    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Result carries what a finished stage reports back.
type Result struct {
	Artifact  string
	Energy    *float64
	Fmax      *float64
	Converged *bool
	Detail    string
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database under workdir.
func Open(workdir string) (*Store, error) {
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure work dir: %w", err)
	}
	dbPath := filepath.Join(workdir, "ledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}
	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// StartRun records the beginning of a stage and returns its run ID.
func (s *Store) StartRun(ctx context.Context, stage string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, stage, StatusRunning, now, now)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as done and stores its results.
func (s *Store) FinishRun(ctx context.Context, id string, res Result) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, artifact = ?, energy = ?, fmax = ?, converged = ?, detail = ?, updated_at = ?
         WHERE id = ?`,
		StatusDone, nullableString(res.Artifact), nullableFloat(res.Energy), nullableFloat(res.Fmax),
		nullableBool(res.Converged), nullableString(res.Detail), now, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed with the given reason.
func (s *Store) FailRun(ctx context.Context, id string, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, detail = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, nullableString(reason), now, id)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

const runColumns = `id, stage, status, COALESCE(artifact, ''), energy, fmax, converged, COALESCE(detail, ''), created_at, updated_at`

// Latest returns the most recent run of the given stage, or nil if the
// stage has never run.
func (s *Store) Latest(ctx context.Context, stage string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE stage = ? ORDER BY created_at DESC LIMIT 1`, stage)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest %s run: %w", stage, err)
	}
	return run, nil
}

// List returns all recorded runs, oldest first.
func (s *Store) List(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := new(Run)
	var created, updated string
	err := row.Scan(&run.ID, &run.Stage, &run.Status, &run.Artifact,
		&run.Energy, &run.Fmax, &run.Converged, &run.Detail, &created, &updated)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return run, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
