package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": LogLevelDebug, "": LogLevelInfo, "WARN": LogLevelWarn, "error": LogLevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSlogLogger_WithPrependsArgs(t *testing.T) {
	var buf bytes.Buffer
	l := With(NewSlogLogger(LogLevelDebug, "json", &buf), "agent", "src")
	l.Info("turn finished", "verb", "WAIT")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "turn finished", rec["msg"])
	assert.Equal(t, "src", rec["agent"])
	assert.Equal(t, "WAIT", rec["verb"])
}

func TestSlogLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(LogLevelWarn, "text", &buf)
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := With(NewZapAdapter(zap.New(core)), "run_id", "r1")
	l.Warn("scope violation", "agent", "src")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scope violation", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["run_id"])
	assert.Equal(t, "src", fields["agent"])
}

func TestWith_NilAndNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, With(nil, "k", "v"))
	assert.IsType(t, NoOpLogger{}, With(NoOpLogger{}, "k", "v"))
}
