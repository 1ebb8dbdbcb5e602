// Package testutil holds shared helpers for tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level logger routed through t.Log, so
// reader and registry output shows up only on failure or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct {
	t testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
