package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crawlkit/crawljob/internal/domain"
)

// runAdmissionLockKey is the advisory lock key serializing run admission.
// Two near-simultaneous StartRun transactions queue on this lock, so the
// RUNNING-exists check and the insert behave as one critical section.
const runAdmissionLockKey int64 = 727269

// runSelectColumns lists columns for SELECT queries on crawl_runs.
const runSelectColumns = `id, job_name, target_url, status,
	started_at, completed_at,
	total_count, success_count, fail_count, error_message,
	created_at, updated_at`

// RunRepository handles database operations for the crawl run ledger.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// StartRun inserts a new RUNNING ledger entry after confirming no other
// run is RUNNING, in a single transaction. Returns domain.ErrRunActive if
// a run of any job name is still in progress.
func (r *RunRepository) StartRun(ctx context.Context, run *domain.JobRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin admission transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, runAdmissionLockKey); lockErr != nil {
		return fmt.Errorf("failed to acquire admission lock: %w", lockErr)
	}

	var active bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM crawl_runs WHERE status = $1)`
	if checkErr := tx.GetContext(ctx, &active, checkQuery, domain.JobStatusRunning); checkErr != nil {
		return fmt.Errorf("failed to check for active run: %w", checkErr)
	}
	if active {
		return domain.ErrRunActive
	}

	insertQuery := `
		INSERT INTO crawl_runs (id, job_name, target_url, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	if _, insertErr := tx.ExecContext(
		ctx, insertQuery,
		run.ID, run.JobName, run.TargetURL, run.Status, run.StartedAt,
	); insertErr != nil {
		return fmt.Errorf("failed to insert crawl run: %w", insertErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit admission transaction: %w", commitErr)
	}

	return nil
}

// CompleteSuccess transitions a RUNNING run to SUCCESS and records the
// counts. total_count is always success + fail. Returns domain.ErrNotFound
// for an unknown id and domain.ErrInvalidState for an already-terminal run;
// completion is write-once.
func (r *RunRepository) CompleteSuccess(ctx context.Context, id string, successCount, failCount int) error {
	query := `
		UPDATE crawl_runs
		SET status = $1,
			completed_at = NOW(),
			success_count = $2,
			fail_count = $3,
			total_count = $4,
			updated_at = NOW()
		WHERE id = $5 AND status = $6
	`

	result, execErr := r.db.ExecContext(
		ctx, query,
		domain.JobStatusSuccess, successCount, failCount, successCount+failCount,
		id, domain.JobStatusRunning,
	)
	return r.requireRunningRun(ctx, id, result, execErr)
}

// CompleteFailure transitions a RUNNING run to FAILED with an error
// message. Same preconditions as CompleteSuccess.
func (r *RunRepository) CompleteFailure(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE crawl_runs
		SET status = $1,
			completed_at = NOW(),
			error_message = $2,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, execErr := r.db.ExecContext(ctx, query, domain.JobStatusFailed, errorMessage, id, domain.JobStatusRunning)
	return r.requireRunningRun(ctx, id, result, execErr)
}

// requireRunningRun resolves a zero-row conditional update into the right
// failure: unknown id vs. a run that is no longer RUNNING.
func (r *RunRepository) requireRunningRun(ctx context.Context, id string, result sql.Result, execErr error) error {
	if execErr != nil {
		return fmt.Errorf("failed to complete crawl run: %w", execErr)
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM crawl_runs WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return fmt.Errorf("failed to resolve completion conflict: %w", err)
	}
	if !exists {
		return fmt.Errorf("crawl run %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("crawl run %s is not RUNNING: %w", id, domain.ErrInvalidState)
}

// HasActiveRun reports whether any run is currently RUNNING. The check is
// always derived from the durable ledger, never from in-memory state.
func (r *RunRepository) HasActiveRun(ctx context.Context) (bool, error) {
	var active bool
	query := `SELECT EXISTS (SELECT 1 FROM crawl_runs WHERE status = $1)`

	if err := r.db.GetContext(ctx, &active, query, domain.JobStatusRunning); err != nil {
		return false, fmt.Errorf("failed to check for active run: %w", err)
	}

	return active, nil
}

// GetByID retrieves a run by its id.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.JobRun, error) {
	var run domain.JobRun
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE id = $1`

	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("crawl run %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	return &run, nil
}

// FindLatest returns the most recently started run across all job names.
func (r *RunRepository) FindLatest(ctx context.Context) (*domain.JobRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs ORDER BY started_at DESC LIMIT 1`
	return r.getOne(ctx, query)
}

// FindLatestByName returns the most recently started run for a job name.
func (r *RunRepository) FindLatestByName(ctx context.Context, jobName string) (*domain.JobRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE job_name = $1 ORDER BY started_at DESC LIMIT 1`
	return r.getOne(ctx, query, jobName)
}

func (r *RunRepository) getOne(ctx context.Context, query string, args ...any) (*domain.JobRun, error) {
	var run domain.JobRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}
	return &run, nil
}

// FindByStatus returns all runs with the given status, newest first.
func (r *RunRepository) FindByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.JobRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE status = $1 ORDER BY started_at DESC`
	return r.selectRuns(ctx, query, status)
}

// FindByNameAndStatus returns runs for a job name with the given status,
// newest first.
func (r *RunRepository) FindByNameAndStatus(ctx context.Context, jobName string, status domain.JobStatus) ([]*domain.JobRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE job_name = $1 AND status = $2 ORDER BY started_at DESC`
	return r.selectRuns(ctx, query, jobName, status)
}

// FindStartedBetween returns runs started within [from, to], newest first.
// Callers supply the bounds; the ledger performs no calendar math, so the
// "today" view is just this query with day-boundary timestamps.
func (r *RunRepository) FindStartedBetween(ctx context.Context, from, to time.Time) ([]*domain.JobRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE started_at BETWEEN $1 AND $2 ORDER BY started_at DESC`
	return r.selectRuns(ctx, query, from, to)
}

func (r *RunRepository) selectRuns(ctx context.Context, query string, args ...any) ([]*domain.JobRun, error) {
	var runs []*domain.JobRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	if runs == nil {
		runs = []*domain.JobRun{}
	}
	return runs, nil
}

// AverageSuccessRate returns the mean of success_count/total_count across
// SUCCESS runs with total_count > 0. Every run weighs equally regardless of
// its size; this is not a global ratio of sums. Returns nil when no run
// qualifies.
func (r *RunRepository) AverageSuccessRate(ctx context.Context) (*float64, error) {
	query := `
		SELECT AVG(success_count::float / NULLIF(total_count, 0))
		FROM crawl_runs
		WHERE status = $1 AND total_count > 0
	`

	var rate sql.NullFloat64
	if err := r.db.GetContext(ctx, &rate, query, domain.JobStatusSuccess); err != nil {
		return nil, fmt.Errorf("failed to compute average success rate: %w", err)
	}
	if !rate.Valid {
		return nil, nil
	}

	return &rate.Float64, nil
}
