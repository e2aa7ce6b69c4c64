package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/logging"
)

func TestNewBuildsLoggerAtEveryRecognizedLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := logging.New(level, "json")
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.NoError(t, l.Sync())
	}
}

func TestNewFallsBackToInfoOnUnrecognizedLevel(t *testing.T) {
	l, err := logging.New("not-a-level", "json")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.NoError(t, l.Sync())
}

func TestNewSupportsConsoleFormat(t *testing.T) {
	l, err := logging.New("info", "console")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.NoError(t, l.Sync())
}

func TestLoggerSatisfiesIngestLoggerInterface(t *testing.T) {
	l, err := logging.New("info", "json")
	require.NoError(t, err)

	var _ ingest.Logger = l

	l.Debug("debug message", ingest.Field{Key: "k", Value: "v"})
	l.Info("info message")
	l.Warn("warn message", ingest.Field{Key: "n", Value: 1})
	l.Error("error message")
}
