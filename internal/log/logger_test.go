package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentReport, Output: &buf})

	logger.Info("hello", FieldSheet, "MARCH 2024")
	logger.Debug("hidden")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0]["msg"])
	assert.Equal(t, ComponentReport, lines[0][FieldComponent])
	assert.Equal(t, "MARCH 2024", lines[0][FieldSheet])
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentHTTP)
	assert.Equal(t, ComponentHTTP, logger.Component())

	logger.Info("x")
	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, `"component"`))
	assert.Contains(t, line, `"component":"http"`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})
	logger.LogError(context.Background(), "failed", errors.New("boom"), OpSummary, ErrorTypeUpstream, FieldSheet, "MAY 2024")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0][FieldError])
	assert.Equal(t, OpSummary, lines[0][FieldOperation])
	assert.Equal(t, ErrorTypeUpstream, lines[0]["error_type"])
	assert.Equal(t, "MAY 2024", lines[0][FieldSheet])
}

func TestContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).With(FieldRequestID, "req-42")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("inside")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0][FieldRequestID])
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/summary?sheet=x", nil)

	sl.LogHTTPEnd(context.Background(), r, 200, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 404, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 500, 3, "127.0.0.1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, "sheet=x", lines[0][FieldQuery])
}
