// Package testutil provides shared test helpers.
package testutil

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

// levelEnvVar lets a test run raise the captured log level, e.g.
// SPENDLENS_TEST_LOG_LEVEL=warn to silence per-stage debug detail while
// chasing a failure.
const levelEnvVar = "SPENDLENS_TEST_LOG_LEVEL"

// NewTestLogger returns a logger that writes through t.Log, so pipeline
// logging only appears on test failure or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(levelEnvVar)) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

type tbWriter struct {
	t testing.TB
}

// Write forwards handler output to the test log, trimming the handler's
// trailing newline so entries are not double-spaced.
func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
