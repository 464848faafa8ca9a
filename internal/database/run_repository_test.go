package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/crawlkit/crawljob/internal/database"
	"github.com/crawlkit/crawljob/internal/domain"
)

func newMockRunRepo(t *testing.T) (*database.RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	return database.NewRunRepository(db), mock, func() { mockDB.Close() }
}

func runColumns() []string {
	return []string{
		"id", "job_name", "target_url", "status",
		"started_at", "completed_at",
		"total_count", "success_count", "fail_count", "error_message",
		"created_at", "updated_at",
	}
}

func TestRunRepository_StartRun(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	target := "https://news.example.com"
	run := &domain.JobRun{
		ID:        "run-1",
		JobName:   "DAILY_NEWS_CRAWLING",
		TargetURL: &target,
		Status:    domain.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(string(domain.JobStatusRunning)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs(run.ID, run.JobName, &target, string(domain.JobStatusRunning), run.StartedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.StartRun(context.Background(), run); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunRepository_StartRun_Conflict(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	run := &domain.JobRun{
		ID:        "run-2",
		JobName:   "DAILY_NEWS_CRAWLING",
		Status:    domain.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(string(domain.JobStatusRunning)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.StartRun(context.Background(), run)
	if !errors.Is(err, domain.ErrRunActive) {
		t.Fatalf("StartRun() error = %v, want ErrRunActive", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunRepository_CompleteSuccess(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectExec("UPDATE crawl_runs").
		WithArgs(string(domain.JobStatusSuccess), 5, 2, 7, "run-1", string(domain.JobStatusRunning)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CompleteSuccess(context.Background(), "run-1", 5, 2); err != nil {
		t.Fatalf("CompleteSuccess() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunRepository_CompleteSuccess_AlreadyTerminal(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectExec("UPDATE crawl_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.CompleteSuccess(context.Background(), "run-1", 5, 2)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("CompleteSuccess() error = %v, want ErrInvalidState", err)
	}
}

func TestRunRepository_CompleteFailure_NotFound(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectExec("UPDATE crawl_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.CompleteFailure(context.Background(), "missing", "fetch timed out")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CompleteFailure() error = %v, want ErrNotFound", err)
	}
}

func TestRunRepository_HasActiveRun(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(string(domain.JobStatusRunning)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActiveRun(context.Background())
	if err != nil {
		t.Fatalf("HasActiveRun() error = %v", err)
	}
	if !active {
		t.Error("expected active run")
	}
}

func TestRunRepository_FindLatestByName(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	started := time.Now().Add(-time.Hour)
	completed := started.Add(42 * time.Second)
	rows := sqlmock.NewRows(runColumns()).
		AddRow("run-1", "DAILY_NEWS_CRAWLING", nil, "SUCCESS",
			started, completed, 7, 5, 2, nil, started, completed)

	mock.ExpectQuery("SELECT (.+) FROM crawl_runs WHERE job_name").
		WithArgs("DAILY_NEWS_CRAWLING").
		WillReturnRows(rows)

	run, err := repo.FindLatestByName(context.Background(), "DAILY_NEWS_CRAWLING")
	if err != nil {
		t.Fatalf("FindLatestByName() error = %v", err)
	}
	if run.Status != domain.JobStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", run.Status)
	}
	if run.TotalCount == nil || *run.TotalCount != 7 {
		t.Errorf("expected total_count=7, got %v", run.TotalCount)
	}
	if seconds := run.ExecutionSeconds(); seconds == nil || *seconds != 42 {
		t.Errorf("expected 42 execution seconds, got %v", seconds)
	}
}

func TestRunRepository_FindLatest_Empty(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM crawl_runs ORDER BY started_at DESC").
		WillReturnRows(sqlmock.NewRows(runColumns()))

	_, err := repo.FindLatest(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FindLatest() error = %v, want ErrNotFound", err)
	}
}

func TestRunRepository_FindStartedBetween(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	from := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)
	started := from.Add(3 * time.Hour)

	rows := sqlmock.NewRows(runColumns()).
		AddRow("run-1", "DAILY_NEWS_CRAWLING", nil, "RUNNING",
			started, nil, nil, nil, nil, nil, started, started)

	mock.ExpectQuery("SELECT (.+) FROM crawl_runs WHERE started_at BETWEEN").
		WithArgs(from, to).
		WillReturnRows(rows)

	runs, err := repo.FindStartedBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FindStartedBetween() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].CompletedAt != nil {
		t.Error("expected nil completed_at for running run")
	}
	if runs[0].ExecutionSeconds() != nil {
		t.Error("expected nil execution seconds while running")
	}
}

// The average is the mean of per-run rates, not a global ratio of sums:
// runs (8/10) and (1/2) yield 0.65, never 9/12.
func TestRunRepository_AverageSuccessRate(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectQuery(`AVG\(success_count::float / NULLIF\(total_count, 0\)\)`).
		WithArgs(string(domain.JobStatusSuccess)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(0.65))

	rate, err := repo.AverageSuccessRate(context.Background())
	if err != nil {
		t.Fatalf("AverageSuccessRate() error = %v", err)
	}
	if rate == nil || *rate != 0.65 {
		t.Errorf("expected 0.65, got %v", rate)
	}
}

func TestRunRepository_AverageSuccessRate_NoRuns(t *testing.T) {
	repo, mock, closeDB := newMockRunRepo(t)
	defer closeDB()

	mock.ExpectQuery("AVG").
		WithArgs(string(domain.JobStatusSuccess)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	rate, err := repo.AverageSuccessRate(context.Background())
	if err != nil {
		t.Fatalf("AverageSuccessRate() error = %v", err)
	}
	if rate != nil {
		t.Errorf("expected nil rate, got %v", *rate)
	}
}
