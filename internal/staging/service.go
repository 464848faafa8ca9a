// Package staging provides the staged record store: insertion of fetched
// units, the claim-based processing lifecycle and staleness recovery.
package staging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crawlkit/crawljob/internal/domain"
)

// RecordStore is the persistence contract the staged record store needs.
type RecordStore interface {
	Insert(ctx context.Context, record *domain.StagedRecord) error
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.StagedRecord, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (*domain.StagedRecord, error)
	Claim(ctx context.Context, id string) error
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	Requeue(ctx context.Context, id string) error
	RequeuePending(ctx context.Context, id string) (bool, error)
	FindByStatus(ctx context.Context, status domain.RecordStatus) ([]*domain.StagedRecord, error)
	FindStale(ctx context.Context, status domain.RecordStatus, threshold time.Time) ([]*domain.StagedRecord, error)
	FindCrawledBetween(ctx context.Context, from, to time.Time) ([]*domain.StagedRecord, error)
	CountByStatus(ctx context.Context, status domain.RecordStatus) (int, error)
}

// Validation errors returned before any store access.
var (
	ErrEmptySourceURL = errors.New("source URL must not be empty")
	ErrEmptyContent   = errors.New("content must not be empty")
)

// StageInput carries one fetched unit from the extract stage.
type StageInput struct {
	SourceURL   string
	Title       string
	Content     string
	ContentType string
}

// Service coordinates the staged record lifecycle.
type Service struct {
	store  RecordStore
	logger *zap.Logger
}

// NewService creates a new staging service.
func NewService(store RecordStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Exists reports whether a record for the source URL was already staged.
// Deduplication is advisory: callers check before Stage, the store itself
// never rejects a duplicate.
func (s *Service) Exists(ctx context.Context, sourceURL string) (bool, error) {
	return s.store.ExistsBySourceURL(ctx, sourceURL)
}

// Stage inserts a new PENDING record with CrawledAt set to now.
func (s *Service) Stage(ctx context.Context, input StageInput) (*domain.StagedRecord, error) {
	if input.SourceURL == "" {
		return nil, ErrEmptySourceURL
	}
	if input.Content == "" {
		return nil, ErrEmptyContent
	}

	record := &domain.StagedRecord{
		ID:        uuid.NewString(),
		SourceURL: input.SourceURL,
		Content:   input.Content,
		Status:    domain.RecordStatusPending,
		CrawledAt: time.Now().UTC(),
	}
	if input.Title != "" {
		record.Title = &input.Title
	}
	if input.ContentType != "" {
		record.ContentType = &input.ContentType
	}

	if err := s.store.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Debug("staged record",
		zap.String("record_id", record.ID),
		zap.String("source_url", record.SourceURL))

	return record, nil
}

// MarkProcessing claims a PENDING record for processing. Exactly one of
// several concurrent claims on the same record succeeds; the losers get
// domain.ErrInvalidState and should skip the record, not alarm.
func (s *Service) MarkProcessing(ctx context.Context, id string) error {
	if err := s.store.Claim(ctx, id); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			s.logger.Debug("lost claim, record already taken", zap.String("record_id", id))
		}
		return err
	}
	return nil
}

// MarkProcessed transitions a PROCESSING record to PROCESSED.
func (s *Service) MarkProcessed(ctx context.Context, id string) error {
	return s.store.MarkProcessed(ctx, id)
}

// MarkFailed transitions a PROCESSING record to FAILED with an error
// message.
func (s *Service) MarkFailed(ctx context.Context, id, errorMessage string) error {
	return s.store.MarkFailed(ctx, id, errorMessage)
}

// GetRecord retrieves a record by id.
func (s *Service) GetRecord(ctx context.Context, id string) (*domain.StagedRecord, error) {
	return s.store.GetByID(ctx, id)
}

// GetBySourceURL retrieves the most recently crawled record for a source URL.
func (s *Service) GetBySourceURL(ctx context.Context, sourceURL string) (*domain.StagedRecord, error) {
	return s.store.GetBySourceURL(ctx, sourceURL)
}

// FindByStatus returns all records with the given status.
func (s *Service) FindByStatus(ctx context.Context, status domain.RecordStatus) ([]*domain.StagedRecord, error) {
	return s.store.FindByStatus(ctx, status)
}

// FindStale returns records with the given status crawled before the
// threshold, oldest first.
func (s *Service) FindStale(ctx context.Context, status domain.RecordStatus, threshold time.Time) ([]*domain.StagedRecord, error) {
	return s.store.FindStale(ctx, status, threshold)
}

// FindCrawledBetween returns records crawled within [from, to].
func (s *Service) FindCrawledBetween(ctx context.Context, from, to time.Time) ([]*domain.StagedRecord, error) {
	return s.store.FindCrawledBetween(ctx, from, to)
}

// CountByStatus returns the number of records with the given status.
func (s *Service) CountByStatus(ctx context.Context, status domain.RecordStatus) (int, error) {
	return s.store.CountByStatus(ctx, status)
}

// Requeue resets a single record to PENDING. This is the explicit
// administrative re-stage decision; terminal records are never reopened
// implicitly.
func (s *Service) Requeue(ctx context.Context, id string) error {
	if err := s.store.Requeue(ctx, id); err != nil {
		return err
	}
	s.logger.Info("requeued staged record", zap.String("record_id", id))
	return nil
}

// RequeueStale re-queues every PENDING record that has sat unprocessed
// since before the threshold. Returns the number of records requeued.
// This is the periodic maintenance pass; it may run alongside an active
// run since it only touches PENDING records. The requeue write is itself
// conditioned on PENDING, so a record claimed between the scan and the
// write is skipped rather than yanked back from its worker.
func (s *Service) RequeueStale(ctx context.Context, threshold time.Time) (int, error) {
	stale, err := s.store.FindStale(ctx, domain.RecordStatusPending, threshold)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, record := range stale {
		won, requeueErr := s.store.RequeuePending(ctx, record.ID)
		if requeueErr != nil {
			return requeued, requeueErr
		}
		if !won {
			s.logger.Debug("skipping stale record claimed mid-scan", zap.String("record_id", record.ID))
			continue
		}
		requeued++
	}

	if requeued > 0 {
		s.logger.Info("requeued stale records",
			zap.Int("count", requeued),
			zap.Time("threshold", threshold))
	}

	return requeued, nil
}
