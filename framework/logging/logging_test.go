package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logging.ParseLevel(tt.in), tt.in)
	}
}

func TestNew_JSONByDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logging.New(logging.Options{Output: &buf}).Info("booted", slog.String("env", "local"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booted", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "local", line["env"])
}

func TestNew_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logging.New(logging.Options{Format: "text", Output: &buf}).Info("booted")

	assert.Contains(t, buf.String(), "level=INFO msg=booted")
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logging.New(logging.Options{Level: "warn", Output: &buf})

	log.Info("dropped")
	log.Debug("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestNewNope(t *testing.T) {
	t.Parallel()
	log := logging.NewNope()
	require.NotNil(t, log)
	log.Error("nowhere")
}
