package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Repository handles CRUD operations for stored simulation runs.
// Database: runs.db (runs table).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new runs repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Create stores a run and its paths. Paths are msgpack-encoded into a single
// blob; failed runs store a nil blob.
func (r *Repository) Create(run Run, paths []abm.Path) error {
	var blob []byte
	if len(paths) > 0 {
		encoded, err := msgpack.Marshal(paths)
		if err != nil {
			return fmt.Errorf("failed to encode paths: %w", err)
		}
		blob = encoded
	}

	var seed interface{}
	if run.Seed != nil {
		seed = *run.Seed
	}

	_, err := r.db.Exec(`
		INSERT INTO runs
		(uuid, label, drift, volatility, grid_start, grid_end, steps,
		 initial_value, path_count, seed, status, failure_count, paths_blob, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.UUID,
		run.Label,
		run.Drift,
		run.Volatility,
		run.GridStart,
		run.GridEnd,
		run.Steps,
		run.InitialValue,
		run.PathCount,
		seed,
		run.Status,
		run.FailureCount,
		blob,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get fetches a run's metadata by UUID.
func (r *Repository) Get(runUUID string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT uuid, label, drift, volatility, grid_start, grid_end, steps,
		       initial_value, path_count, seed, status, failure_count, created_at
		FROM runs
		WHERE uuid = ?
	`, runUUID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runUUID, err)
	}
	return run, nil
}

// GetPaths decodes and returns the stored paths of a run.
func (r *Repository) GetPaths(runUUID string) ([]abm.Path, error) {
	var blob []byte
	err := r.db.QueryRow(`SELECT paths_blob FROM runs WHERE uuid = ?`, runUUID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get paths for run %s: %w", runUUID, err)
	}

	if len(blob) == 0 {
		return nil, nil
	}

	var paths []abm.Path
	if err := msgpack.Unmarshal(blob, &paths); err != nil {
		return nil, fmt.Errorf("failed to decode paths for run %s: %w", runUUID, err)
	}
	return paths, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *Repository) ListRecent(limit int) ([]Run, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT uuid, label, drift, volatility, grid_start, grid_end, steps,
		       initial_value, path_count, seed, status, failure_count, created_at
		FROM runs
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		result = append(result, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return result, nil
}

// Delete removes a run. Returns ErrNotFound when nothing was deleted.
func (r *Repository) Delete(runUUID string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE uuid = ?`, runUUID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runUUID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes runs created before the cutoff and returns how
// many were purged. Used by the retention job.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge old runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check purge result: %w", err)
	}
	return affected, nil
}

// Count returns the number of stored runs.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var seed sql.NullInt64
	var createdAt int64

	err := s.Scan(
		&run.UUID,
		&run.Label,
		&run.Drift,
		&run.Volatility,
		&run.GridStart,
		&run.GridEnd,
		&run.Steps,
		&run.InitialValue,
		&run.PathCount,
		&seed,
		&run.Status,
		&run.FailureCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if seed.Valid {
		run.Seed = &seed.Int64
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &run, nil
}
