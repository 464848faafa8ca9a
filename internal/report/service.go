// Package report provides the read-side query layer over the run ledger
// and staged record store, used for monitoring and the CLI views.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crawlkit/crawljob/internal/domain"
)

// RunReader is the read-only ledger contract the report layer needs.
type RunReader interface {
	FindLatest(ctx context.Context) (*domain.JobRun, error)
	FindLatestByName(ctx context.Context, jobName string) (*domain.JobRun, error)
	FindByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.JobRun, error)
	FindByNameAndStatus(ctx context.Context, jobName string, status domain.JobStatus) ([]*domain.JobRun, error)
	FindStartedBetween(ctx context.Context, from, to time.Time) ([]*domain.JobRun, error)
	AverageSuccessRate(ctx context.Context) (*float64, error)
}

// RecordReader is the read-only record contract the report layer needs.
type RecordReader interface {
	FindCrawledBetween(ctx context.Context, from, to time.Time) ([]*domain.StagedRecord, error)
	CountByStatus(ctx context.Context, status domain.RecordStatus) (int, error)
}

// Service answers read-only reporting queries. It never mutates state.
type Service struct {
	runs    RunReader
	records RecordReader
}

// NewService creates a new report service.
func NewService(runs RunReader, records RecordReader) *Service {
	return &Service{runs: runs, records: records}
}

// LatestRun returns the most recently started run across all job names.
func (s *Service) LatestRun(ctx context.Context) (*domain.JobRun, error) {
	return s.runs.FindLatest(ctx)
}

// LatestRunByName returns the most recently started run for a job name.
func (s *Service) LatestRunByName(ctx context.Context, jobName string) (*domain.JobRun, error) {
	return s.runs.FindLatestByName(ctx, jobName)
}

// RunsByStatus returns all runs with the given status.
func (s *Service) RunsByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.JobRun, error) {
	return s.runs.FindByStatus(ctx, status)
}

// RunsByNameAndStatus returns runs for a job name with the given status.
func (s *Service) RunsByNameAndStatus(ctx context.Context, jobName string, status domain.JobStatus) ([]*domain.JobRun, error) {
	return s.runs.FindByNameAndStatus(ctx, jobName, status)
}

// RunsInRange returns runs started within [from, to].
func (s *Service) RunsInRange(ctx context.Context, from, to time.Time) ([]*domain.JobRun, error) {
	return s.runs.FindStartedBetween(ctx, from, to)
}

// TodayRuns returns runs started within the caller-supplied day window.
// The ledger performs no calendar math; callers own the day boundaries.
func (s *Service) TodayRuns(ctx context.Context, startOfDay, endOfDay time.Time) ([]*domain.JobRun, error) {
	return s.runs.FindStartedBetween(ctx, startOfDay, endOfDay)
}

// AverageSuccessRate returns the mean per-run success rate across SUCCESS
// runs with a positive total count, or nil when no run qualifies. Each run
// weighs equally so large runs do not dominate the metric.
func (s *Service) AverageSuccessRate(ctx context.Context) (*float64, error) {
	return s.runs.AverageSuccessRate(ctx)
}

// RecordsForRun returns the staged records correlated to a completed run
// by time window: records crawled between the run's start and completion.
// There is no foreign key between runs and records.
func (s *Service) RecordsForRun(ctx context.Context, run *domain.JobRun) ([]*domain.StagedRecord, error) {
	if run.CompletedAt == nil {
		return nil, fmt.Errorf("run %s has not completed: %w", run.ID, domain.ErrInvalidState)
	}
	return s.records.FindCrawledBetween(ctx, run.StartedAt, *run.CompletedAt)
}

// Summary aggregates the current pipeline state for the status view.
type Summary struct {
	RecordCounts map[domain.RecordStatus]int
	LatestRun    *domain.JobRun
}

// Summarize returns record counts per status and the latest run. A ledger
// with no runs yet yields a nil LatestRun, not an error.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	counts := make(map[domain.RecordStatus]int, len(domain.RecordStatuses()))
	for _, status := range domain.RecordStatuses() {
		count, err := s.records.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status] = count
	}

	latest, err := s.runs.FindLatest(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		latest = nil
	}

	return &Summary{RecordCounts: counts, LatestRun: latest}, nil
}
