// Package domain provides domain models used across the application.
package domain

// JobStatus represents the execution state of a crawl run.
type JobStatus string

const (
	// JobStatusRunning indicates the run is currently executing.
	JobStatusRunning JobStatus = "RUNNING"
	// JobStatusSuccess indicates the run completed successfully.
	JobStatusSuccess JobStatus = "SUCCESS"
	// JobStatusFailed indicates the run completed with an error.
	JobStatusFailed JobStatus = "FAILED"
)

// jobStatusLabels maps each job status to its display label.
var jobStatusLabels = map[JobStatus]string{
	JobStatusRunning: "In Progress",
	JobStatusSuccess: "Succeeded",
	JobStatusFailed:  "Failed",
}

// Label returns the human-readable label for the status.
func (s JobStatus) Label() string {
	if label, ok := jobStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is a known job status.
func (s JobStatus) Valid() bool {
	_, ok := jobStatusLabels[s]
	return ok
}

// Terminal reports whether the status is a terminal run state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// RecordStatus represents the processing state of a staged record.
type RecordStatus string

const (
	// RecordStatusPending indicates the record is awaiting processing.
	RecordStatusPending RecordStatus = "PENDING"
	// RecordStatusProcessing indicates a worker has claimed the record.
	RecordStatusProcessing RecordStatus = "PROCESSING"
	// RecordStatusProcessed indicates processing completed successfully.
	RecordStatusProcessed RecordStatus = "PROCESSED"
	// RecordStatusFailed indicates processing failed.
	RecordStatusFailed RecordStatus = "FAILED"
)

// recordStatusLabels maps each record status to its display label.
var recordStatusLabels = map[RecordStatus]string{
	RecordStatusPending:    "Awaiting Processing",
	RecordStatusProcessing: "Processing",
	RecordStatusProcessed:  "Processed",
	RecordStatusFailed:     "Failed",
}

// Label returns the human-readable label for the status.
func (s RecordStatus) Label() string {
	if label, ok := recordStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is a known record status.
func (s RecordStatus) Valid() bool {
	_, ok := recordStatusLabels[s]
	return ok
}

// Terminal reports whether the status is absorbing. PROCESSED and FAILED
// records are never reopened outside the explicit requeue path.
func (s RecordStatus) Terminal() bool {
	return s == RecordStatusProcessed || s == RecordStatusFailed
}

// RecordStatuses lists all record statuses in lifecycle order.
func RecordStatuses() []RecordStatus {
	return []RecordStatus{
		RecordStatusPending,
		RecordStatusProcessing,
		RecordStatusProcessed,
		RecordStatusFailed,
	}
}
