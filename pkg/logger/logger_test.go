/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TraceLevel, ParseLevel("trace"))
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
}

func TestInitializeSetsDefault(t *testing.T) {
	require.NoError(t, Initialize(Config{Level: InfoLevel, Component: "test"}))
	require.NotNil(t, defaultLogger)
	assert.Equal(t, "test", defaultLogger.config.Component)
}

func TestPrettyFormattingSortsFields(t *testing.T) {
	l := New(&bytes.Buffer{}, Config{Level: InfoLevel, Component: "cachestamp"})

	entry := LogEntry{
		Time:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "manifest emitted",
		Component: "cachestamp",
		Fields:    map[string]interface{}{"path": "resources-manifest.json", "assets": 3},
	}

	result := l.formatPretty(entry)
	assert.Contains(t, result, "2025-01-01 12:00:00")
	assert.Contains(t, result, "[INFO]")
	assert.Contains(t, result, "cachestamp:")
	assert.Contains(t, result, "{assets=3, path=resources-manifest.json}")
}

func TestNoOpMarker(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: InfoLevel, NoOp: true})
	l.Log(InfoLevel, "would write service-worker.js")
	assert.Contains(t, buf.String(), "[NO-OP]")
}

func TestJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: InfoLevel, JSON: true, Component: "test"})

	l.Log(InfoLevel, "version bumped", String("from", "41"), Int64("size", 12), Err(errors.New("boom")))

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "version bumped", entry.Message)
	assert.Equal(t, "41", entry.Fields["from"])
	assert.Equal(t, "boom", entry.Fields["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: WarnLevel})
	l.Log(InfoLevel, "hidden")
	l.Log(WarnLevel, "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileSinkReceivesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachestamp.log")
	var buf bytes.Buffer
	l := New(&buf, Config{Level: InfoLevel, File: path})
	l.Log(InfoLevel, "to file", Bool("dry_run", false))
	require.NoError(t, l.closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestErrNil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}
