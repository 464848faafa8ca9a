package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema defines the two tables owned by this core. Indexes mirror the
// query paths: admission and reporting filter runs by status, name and
// start time; the staleness scan filters records by status and crawl time.
const schema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id            TEXT PRIMARY KEY,
	job_name      VARCHAR(100) NOT NULL,
	target_url    VARCHAR(2048),
	status        VARCHAR(20) NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ,
	total_count   INTEGER,
	success_count INTEGER,
	fail_count    INTEGER,
	error_message VARCHAR(2000),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_crawl_runs_job_name ON crawl_runs(job_name);
CREATE INDEX IF NOT EXISTS idx_crawl_runs_started_at ON crawl_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_crawl_runs_status ON crawl_runs(status);

CREATE TABLE IF NOT EXISTS staged_records (
	id            TEXT PRIMARY KEY,
	source_url    VARCHAR(255) NOT NULL,
	title         VARCHAR(500),
	content       TEXT NOT NULL,
	content_type  VARCHAR(50),
	status        VARCHAR(20) NOT NULL,
	crawled_at    TIMESTAMPTZ NOT NULL,
	processed_at  TIMESTAMPTZ,
	error_message VARCHAR(2000),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_staged_records_source_url ON staged_records(source_url);
CREATE INDEX IF NOT EXISTS idx_staged_records_status ON staged_records(status);
CREATE INDEX IF NOT EXISTS idx_staged_records_crawled_at ON staged_records(crawled_at);
`

// EnsureSchema creates the ledger and staged record tables if they do not
// exist. Deduplication on source_url is advisory at the application layer,
// so no unique constraint is declared on it.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
