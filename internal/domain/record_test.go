package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlkit/crawljob/internal/domain"
)

func newPendingRecord() *domain.StagedRecord {
	return &domain.StagedRecord{
		ID:        "rec-1",
		SourceURL: "https://news.example.com/a",
		Content:   "<html><body>payload</body></html>",
		Status:    domain.RecordStatusPending,
		CrawledAt: time.Now().Add(-time.Minute),
	}
}

func TestStagedRecord_ProcessedLifecycle(t *testing.T) {
	record := newPendingRecord()
	assert.True(t, record.IsPending())

	record.MarkProcessing()
	assert.Equal(t, domain.RecordStatusProcessing, record.Status)
	assert.Nil(t, record.ProcessedAt)

	record.MarkProcessed()
	assert.True(t, record.IsProcessed())
	require.NotNil(t, record.ProcessedAt)
	assert.Nil(t, record.ErrorMessage)
}

func TestStagedRecord_FailedLifecycle(t *testing.T) {
	record := newPendingRecord()

	record.MarkProcessing()
	record.MarkFailed("schema mismatch")

	assert.Equal(t, domain.RecordStatusFailed, record.Status)
	require.NotNil(t, record.ErrorMessage)
	assert.Equal(t, "schema mismatch", *record.ErrorMessage)
	assert.Nil(t, record.ProcessedAt)
}

func TestRecordStatus_Terminal(t *testing.T) {
	assert.False(t, domain.RecordStatusPending.Terminal())
	assert.False(t, domain.RecordStatusProcessing.Terminal())
	assert.True(t, domain.RecordStatusProcessed.Terminal())
	assert.True(t, domain.RecordStatusFailed.Terminal())
}

func TestRecordStatuses_Order(t *testing.T) {
	statuses := domain.RecordStatuses()
	require.Len(t, statuses, 4)
	assert.Equal(t, domain.RecordStatusPending, statuses[0])
	assert.Equal(t, domain.RecordStatusFailed, statuses[3])
}
