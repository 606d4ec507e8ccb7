package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/exemplar/internal/config"
)

func TestNew_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := New(config.LogConfig{Level: "info", Format: "json"})
	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run("level_"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "text"})

	logger.Log(context.Background(), slog.LevelInfo, "suppressed")
	assert.Zero(t, buf.Len())

	logger.Log(context.Background(), slog.LevelWarn, "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_TextHasSourceJSONDoesNot(t *testing.T) {
	var textBuf, jsonBuf bytes.Buffer

	NewWithWriter(&textBuf, config.LogConfig{Level: "info", Format: "text"}).Info("hello")
	NewWithWriter(&jsonBuf, config.LogConfig{Level: "info", Format: "JSON"}).Info("hello", slog.Int("n", 3))

	assert.Contains(t, textBuf.String(), "source=")

	var m map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &m))
	assert.NotContains(t, m, "source")
	assert.Equal(t, "hello", m["msg"])
	assert.EqualValues(t, 3, m["n"])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
