package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the artifact registry on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the registry at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" && !strings.Contains(dbPath, "?") {
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: keeps ":memory:" databases shared and serializes claims
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		download_name TEXT NOT NULL,
		original_name TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		digest TEXT NOT NULL,
		entries INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		claimed_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at);
	CREATE TABLE IF NOT EXISTS job_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_job_events_job ON job_events(job_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create registers a ready artifact. CreatedAt defaults to now.
func (s *SQLiteStore) Create(ctx context.Context, a Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, download_name, original_name, path, size, digest, entries, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DownloadName, a.OriginalName, a.Path, a.Size, a.Digest, a.Entries, StatusReady, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

const artifactColumns = `id, download_name, original_name, path, size, digest, entries, status, created_at, claimed_at`

// Get returns the artifact with id regardless of its status.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, err
}

// Claim atomically moves a ready artifact to serving and returns it.
// Missing and already claimed artifacts both yield ErrNotFound.
func (s *SQLiteStore) Claim(ctx context.Context, id string) (Artifact, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, claimed_at = ? WHERE id = ? AND status = ?`,
		StatusServing, s.now().UnixNano(), id, StatusReady,
	)
	if err != nil {
		return Artifact{}, fmt.Errorf("claim artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Artifact{}, fmt.Errorf("claim artifact: %w", err)
	}
	if n == 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Get(ctx, id)
}

// Release returns a serving artifact to ready.
func (s *SQLiteStore) Release(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, claimed_at = 0 WHERE id = ? AND status = ?`,
		StatusReady, id, StatusServing,
	)
	if err != nil {
		return fmt.Errorf("release artifact: %w", err)
	}
	return nil
}

// Delete removes the artifact row. Deleting a missing row is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// Expired lists artifacts created before cutoff that are not being served,
// plus serving claims older than cutoff (left behind by an interrupted transfer).
func (s *SQLiteStore) Expired(ctx context.Context, cutoff time.Time) ([]Artifact, error) {
	c := cutoff.UnixNano()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE created_at < ? AND (status = ? OR claimed_at < ?)
		 ORDER BY created_at`,
		c, StatusReady, c,
	)
	if err != nil {
		return nil, fmt.Errorf("query expired artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// ResetClaims returns every serving artifact to ready. Called at startup,
// when no transfer can still be in flight.
func (s *SQLiteStore) ResetClaims(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, claimed_at = 0 WHERE status = ?`, StatusReady, StatusServing)
	if err != nil {
		return 0, fmt.Errorf("reset claims: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of registered artifacts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return n, nil
}

// AppendEvent records a history entry for jobID.
func (s *SQLiteStore) AppendEvent(ctx context.Context, jobID, eventType, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_events (job_id, event_type, timestamp, detail) VALUES (?, ?, ?, ?)`,
		jobID, eventType, s.now().UnixNano(), detail,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns the history of jobID in insertion order.
func (s *SQLiteStore) Events(ctx context.Context, jobID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, event_type, timestamp, detail FROM job_events WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var ts int64
		if err := rows.Scan(&e.ID, &e.JobID, &e.Type, &ts, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// PruneEvents deletes history older than cutoff.
func (s *SQLiteStore) PruneEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM job_events WHERE timestamp < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var a Artifact
	var status string
	var created, claimed int64
	if err := row.Scan(&a.ID, &a.DownloadName, &a.OriginalName, &a.Path, &a.Size, &a.Digest, &a.Entries, &status, &created, &claimed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, err
		}
		return Artifact{}, fmt.Errorf("scan artifact: %w", err)
	}
	a.Status = Status(status)
	a.CreatedAt = time.Unix(0, created)
	if claimed > 0 {
		a.ClaimedAt = time.Unix(0, claimed)
	}
	return a, nil
}
