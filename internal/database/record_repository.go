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

// recordSelectColumns lists columns for SELECT queries on staged_records.
const recordSelectColumns = `id, source_url, title, content, content_type, status,
	crawled_at, processed_at, error_message,
	created_at, updated_at`

// RecordRepository handles database operations for staged records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new staged record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert stages a new record. The store does not reject duplicate source
// URLs; callers check ExistsBySourceURL first when deduplication is wanted.
func (r *RecordRepository) Insert(ctx context.Context, record *domain.StagedRecord) error {
	query := `
		INSERT INTO staged_records (id, source_url, title, content, content_type, status, crawled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	_, err := r.db.ExecContext(
		ctx, query,
		record.ID, record.SourceURL, record.Title, record.Content,
		record.ContentType, record.Status, record.CrawledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert staged record: %w", err)
	}

	return nil
}

// ExistsBySourceURL reports whether any record exists for the source URL.
// Used by the extract stage to skip re-insertion of an already-seen source.
func (r *RecordRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM staged_records WHERE source_url = $1)`

	if err := r.db.GetContext(ctx, &exists, query, sourceURL); err != nil {
		return false, fmt.Errorf("failed to check staged record existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves a staged record by its id.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.StagedRecord, error) {
	var record domain.StagedRecord
	query := `SELECT ` + recordSelectColumns + ` FROM staged_records WHERE id = $1`

	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("staged record %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get staged record: %w", err)
	}

	return &record, nil
}

// GetBySourceURL retrieves the most recently crawled record for a source URL.
func (r *RecordRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*domain.StagedRecord, error) {
	var record domain.StagedRecord
	query := `SELECT ` + recordSelectColumns + ` FROM staged_records WHERE source_url = $1 ORDER BY crawled_at DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &record, query, sourceURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staged record: %w", err)
	}

	return &record, nil
}

// Claim transitions a PENDING record to PROCESSING with a single
// status-conditioned update, so exactly one worker wins. Returns
// domain.ErrNotFound for an unknown id and domain.ErrInvalidState when the
// record is not PENDING; a lost claim means "already taken", not an error.
func (r *RecordRepository) Claim(ctx context.Context, id string) error {
	query := `
		UPDATE staged_records
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, execErr := r.db.ExecContext(ctx, query, domain.RecordStatusProcessing, id, domain.RecordStatusPending)
	return r.requireRecordInStatus(ctx, id, result, execErr)
}

// MarkProcessed transitions a PROCESSING record to PROCESSED and stamps
// processed_at.
func (r *RecordRepository) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE staged_records
		SET status = $1, processed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, execErr := r.db.ExecContext(ctx, query, domain.RecordStatusProcessed, id, domain.RecordStatusProcessing)
	return r.requireRecordInStatus(ctx, id, result, execErr)
}

// MarkFailed transitions a PROCESSING record to FAILED with an error
// message, retained indefinitely for audit.
func (r *RecordRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE staged_records
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, execErr := r.db.ExecContext(ctx, query, domain.RecordStatusFailed, errorMessage, id, domain.RecordStatusProcessing)
	return r.requireRecordInStatus(ctx, id, result, execErr)
}

// Requeue resets a record to PENDING and clears its processing outcome.
// This is the explicit administrative re-stage path; normal transitions
// never reopen a terminal record.
func (r *RecordRepository) Requeue(ctx context.Context, id string) error {
	query := `
		UPDATE staged_records
		SET status = $1, processed_at = NULL, error_message = NULL, updated_at = NOW()
		WHERE id = $2
	`

	result, execErr := r.db.ExecContext(ctx, query, domain.RecordStatusPending, id)
	if execErr != nil {
		return fmt.Errorf("failed to requeue staged record: %w", execErr)
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}
	if n == 0 {
		return fmt.Errorf("staged record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RequeuePending requeues a record only while it is still PENDING. A false
// return means the record was claimed or removed between the staleness scan
// and this write; the maintenance pass skips it instead of undoing a
// worker's claim.
func (r *RecordRepository) RequeuePending(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE staged_records
		SET processed_at = NULL, error_message = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, execErr := r.db.ExecContext(ctx, query, id, domain.RecordStatusPending)
	if execErr != nil {
		return false, fmt.Errorf("failed to requeue staged record: %w", execErr)
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}
	return n > 0, nil
}

// requireRecordInStatus resolves a zero-row conditional update into the
// right failure: unknown id vs. a record that was not in the expected
// prior status.
func (r *RecordRepository) requireRecordInStatus(ctx context.Context, id string, result sql.Result, execErr error) error {
	if execErr != nil {
		return fmt.Errorf("failed to update staged record: %w", execErr)
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM staged_records WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return fmt.Errorf("failed to resolve record transition conflict: %w", err)
	}
	if !exists {
		return fmt.Errorf("staged record %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("staged record %s: %w", id, domain.ErrInvalidState)
}

// FindByStatus returns all records with the given status, newest first.
func (r *RecordRepository) FindByStatus(ctx context.Context, status domain.RecordStatus) ([]*domain.StagedRecord, error) {
	query := `SELECT ` + recordSelectColumns + ` FROM staged_records WHERE status = $1 ORDER BY crawled_at DESC`
	return r.selectRecords(ctx, query, status)
}

// FindStale returns records with the given status crawled strictly before
// the threshold, oldest first. This is the recovery query; the store only
// identifies candidates, retry policy stays with the processing stage.
func (r *RecordRepository) FindStale(ctx context.Context, status domain.RecordStatus, threshold time.Time) ([]*domain.StagedRecord, error) {
	query := `SELECT ` + recordSelectColumns + ` FROM staged_records WHERE status = $1 AND crawled_at < $2 ORDER BY crawled_at ASC`
	return r.selectRecords(ctx, query, status, threshold)
}

// FindCrawledBetween returns records crawled within [from, to], newest
// first. Callers supply the bounds.
func (r *RecordRepository) FindCrawledBetween(ctx context.Context, from, to time.Time) ([]*domain.StagedRecord, error) {
	query := `SELECT ` + recordSelectColumns + ` FROM staged_records WHERE crawled_at BETWEEN $1 AND $2 ORDER BY crawled_at DESC`
	return r.selectRecords(ctx, query, from, to)
}

// CountByStatus returns the number of records with the given status.
func (r *RecordRepository) CountByStatus(ctx context.Context, status domain.RecordStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM staged_records WHERE status = $1`

	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("failed to count staged records: %w", err)
	}

	return count, nil
}

func (r *RecordRepository) selectRecords(ctx context.Context, query string, args ...any) ([]*domain.StagedRecord, error) {
	var records []*domain.StagedRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list staged records: %w", err)
	}
	if records == nil {
		records = []*domain.StagedRecord{}
	}
	return records, nil
}
