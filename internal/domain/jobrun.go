package domain

import (
	"time"
)

// JobRun represents a single execution of the recurring crawl batch job.
// One row is written per run and kept forever as an audit trail.
type JobRun struct {
	// Identity
	ID        string  `db:"id"         json:"id"`
	JobName   string  `db:"job_name"   json:"job_name"` // logical batch, e.g. "DAILY_NEWS_CRAWLING"
	TargetURL *string `db:"target_url" json:"target_url,omitempty"`

	// Status
	Status JobStatus `db:"status" json:"status"`

	// Timing
	StartedAt   time.Time  `db:"started_at"   json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	// Results, set only on completion. TotalCount = SuccessCount + FailCount.
	TotalCount   *int    `db:"total_count"   json:"total_count,omitempty"`
	SuccessCount *int    `db:"success_count" json:"success_count,omitempty"`
	FailCount    *int    `db:"fail_count"    json:"fail_count,omitempty"`
	ErrorMessage *string `db:"error_message" json:"error_message,omitempty"`

	// Audit stamps, maintained by the repository write path.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Complete marks the run as successful and records the counts.
func (r *JobRun) Complete(successCount, failCount int) {
	now := time.Now()
	total := successCount + failCount
	r.Status = JobStatusSuccess
	r.CompletedAt = &now
	r.SuccessCount = &successCount
	r.FailCount = &failCount
	r.TotalCount = &total
}

// Fail marks the run as failed and records the error message.
func (r *JobRun) Fail(errorMessage string) {
	now := time.Now()
	r.Status = JobStatusFailed
	r.CompletedAt = &now
	r.ErrorMessage = &errorMessage
}

// IsRunning reports whether the run is still executing.
func (r *JobRun) IsRunning() bool {
	return r.Status == JobStatusRunning
}

// IsSuccess reports whether the run completed successfully.
func (r *JobRun) IsSuccess() bool {
	return r.Status == JobStatusSuccess
}

// SuccessRate returns success_count/total_count for a completed run, or
// nil when the counts are absent or the total is zero. The ledger-wide
// average is the mean of these per-run rates, never a ratio of summed
// counts.
func (r *JobRun) SuccessRate() *float64 {
	if r.SuccessCount == nil || r.TotalCount == nil || *r.TotalCount == 0 {
		return nil
	}
	rate := float64(*r.SuccessCount) / float64(*r.TotalCount)
	return &rate
}

// ExecutionSeconds returns the run duration in seconds, or nil while the
// run has not completed.
func (r *JobRun) ExecutionSeconds() *int64 {
	if r.CompletedAt == nil {
		return nil
	}
	seconds := int64(r.CompletedAt.Sub(r.StartedAt).Seconds())
	return &seconds
}
