package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		require.Equal(t, want, ParseLevel(input), input)
	}
}

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("clocked in", "employee_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "clocked in", line["msg"])
	require.Equal(t, float64(7), line["employee_id"])
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", "text")
	log.Info("hidden")
	log.With("request_id", "abc").WithGroup("ledger").Warn("refused", "reason", "not_owner")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "refused")
	require.Contains(t, out, "request_id")
	require.Contains(t, out, "ledger.reason")
	require.Contains(t, out, "not_owner")
}
