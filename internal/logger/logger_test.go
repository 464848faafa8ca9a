package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlkit/crawljob/internal/logger"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := logger.New(level)
		require.NoError(t, err, "level %s", level)
		assert.NotNil(t, log)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New("verbose")
	assert.Error(t, err)
}
