package testutil

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTestLoggerDefaultsToDebug(t *testing.T) {
	logger := NewTestLogger(t)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewTestLoggerLevelFromEnv(t *testing.T) {
	t.Setenv(levelEnvVar, "warn")

	logger := NewTestLogger(t)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
