package domain

import (
	"time"
)

// StagedRecord represents one fetched unit of raw content awaiting
// processing. Created by the extract stage, consumed by the processing
// stage. Content is unbounded; multi-megabyte payloads are expected.
type StagedRecord struct {
	// Identity
	ID        string  `db:"id"         json:"id"`
	SourceURL string  `db:"source_url" json:"source_url"`
	Title     *string `db:"title"      json:"title,omitempty"`

	// Payload
	Content     string  `db:"content"      json:"content"`
	ContentType *string `db:"content_type" json:"content_type,omitempty"` // e.g. "HTML", "JSON"

	// Status
	Status RecordStatus `db:"status" json:"status"`

	// Timing
	CrawledAt   time.Time  `db:"crawled_at"   json:"crawled_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`

	// Failure detail, retained indefinitely for audit.
	ErrorMessage *string `db:"error_message" json:"error_message,omitempty"`

	// Audit stamps, maintained by the repository write path.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MarkProcessing transitions the record into PROCESSING.
func (r *StagedRecord) MarkProcessing() {
	r.Status = RecordStatusProcessing
}

// MarkProcessed transitions the record into PROCESSED and stamps the
// processing time.
func (r *StagedRecord) MarkProcessed() {
	now := time.Now()
	r.Status = RecordStatusProcessed
	r.ProcessedAt = &now
}

// MarkFailed transitions the record into FAILED with an error message.
func (r *StagedRecord) MarkFailed(errorMessage string) {
	r.Status = RecordStatusFailed
	r.ErrorMessage = &errorMessage
}

// IsPending reports whether the record is awaiting processing.
func (r *StagedRecord) IsPending() bool {
	return r.Status == RecordStatusPending
}

// IsProcessed reports whether the record was processed successfully.
func (r *StagedRecord) IsProcessed() bool {
	return r.Status == RecordStatusProcessed
}
