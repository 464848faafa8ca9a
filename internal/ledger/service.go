// Package ledger provides the crawl run ledger: run admission, outcome
// recording and the at-most-one-concurrent-run guarantee.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crawlkit/crawljob/internal/domain"
)

// RunStore is the persistence contract the ledger needs.
type RunStore interface {
	StartRun(ctx context.Context, run *domain.JobRun) error
	CompleteSuccess(ctx context.Context, id string, successCount, failCount int) error
	CompleteFailure(ctx context.Context, id, errorMessage string) error
	HasActiveRun(ctx context.Context) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.JobRun, error)
}

// Validation errors returned before any store access.
var (
	ErrEmptyJobName  = errors.New("job name must not be empty")
	ErrNegativeCount = errors.New("counts must not be negative")
)

// Service coordinates run lifecycle against the durable ledger.
type Service struct {
	store  RunStore
	logger *zap.Logger
}

// NewService creates a new ledger service.
func NewService(store RunStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// StartRun records a new RUNNING ledger entry. Admission is atomic with
// the RUNNING-exists check inside the store, so two near-simultaneous
// scheduler invocations cannot both start. Returns domain.ErrRunActive
// when a run is already in progress; the scheduler should skip the cycle.
func (s *Service) StartRun(ctx context.Context, jobName, targetURL string) (*domain.JobRun, error) {
	if jobName == "" {
		return nil, ErrEmptyJobName
	}

	run := &domain.JobRun{
		ID:        uuid.NewString(),
		JobName:   jobName,
		Status:    domain.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if targetURL != "" {
		run.TargetURL = &targetURL
	}

	if err := s.store.StartRun(ctx, run); err != nil {
		if errors.Is(err, domain.ErrRunActive) {
			s.logger.Warn("run admission refused, another run is active",
				zap.String("job_name", jobName))
		}
		return nil, err
	}

	s.logger.Info("crawl run started",
		zap.String("run_id", run.ID),
		zap.String("job_name", jobName),
		zap.String("target_url", targetURL))

	return run, nil
}

// CompleteSuccess transitions a RUNNING run to SUCCESS with the aggregate
// counts reported by the processing stage. Write-once: a second completion
// attempt fails with domain.ErrInvalidState.
func (s *Service) CompleteSuccess(ctx context.Context, id string, successCount, failCount int) error {
	if successCount < 0 || failCount < 0 {
		return ErrNegativeCount
	}

	if err := s.store.CompleteSuccess(ctx, id, successCount, failCount); err != nil {
		return err
	}

	s.logger.Info("crawl run completed",
		zap.String("run_id", id),
		zap.Int("success_count", successCount),
		zap.Int("fail_count", failCount),
		zap.Int("total_count", successCount+failCount))

	return nil
}

// CompleteFailure transitions a RUNNING run to FAILED. The error message
// is retained indefinitely for audit.
func (s *Service) CompleteFailure(ctx context.Context, id, errorMessage string) error {
	if err := s.store.CompleteFailure(ctx, id, errorMessage); err != nil {
		return err
	}

	s.logger.Info("crawl run failed",
		zap.String("run_id", id),
		zap.String("error_message", errorMessage))

	return nil
}

// HasActiveRun reports whether any run is currently RUNNING.
func (s *Service) HasActiveRun(ctx context.Context) (bool, error) {
	return s.store.HasActiveRun(ctx)
}

// GetRun retrieves a run by id.
func (s *Service) GetRun(ctx context.Context, id string) (*domain.JobRun, error) {
	return s.store.GetByID(ctx, id)
}
