package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Level: "info", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	WithComponent(logger, CompTerminal).Info("session created", "session", "main")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "session created")
	assert.Contains(t, out, "component=terminal")
	assert.Contains(t, out, "session=main")
	assert.NotContains(t, out, "hidden")
}

func TestNewFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "khafre.log")
	logger, closer, err := New(Config{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	WithComponent(logger, CompWeb).Debug("client connected", "remote", "127.0.0.1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "client connected", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "web", rec["component"])
	assert.Equal(t, "127.0.0.1", rec["remote"])
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestWithComponentNil(t *testing.T) {
	l := WithComponent(nil, CompConfig)
	require.NotNil(t, l)
	l.Info("dropped")
}
